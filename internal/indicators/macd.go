package indicators

// MACD is a streaming MACD(fast, slow, signal) built from three internal
// EMAs, updated per tick instead of recomputed over a whole slice.
type MACD struct {
	fast, slow *EMA
	signal     *EMA
	line       float64
	signalV    float64
	histogram  float64
	ready      bool
}

func NewMACD(fastPeriod, slowPeriod, signalPeriod int) *MACD {
	return &MACD{
		fast:   NewEMA(fastPeriod),
		slow:   NewEMA(slowPeriod),
		signal: NewEMA(signalPeriod),
	}
}

func (m *MACD) Update(price float64) error {
	fastV, fErr := m.fast.Update(price)
	slowV, sErr := m.slow.Update(price)
	if fErr != nil || sErr != nil {
		return newInsufficientHistory("MACD", 0, m.slow.Period())
	}
	m.line = fastV - slowV
	sigV, sigErr := m.signal.Update(m.line)
	if sigErr != nil {
		return sigErr
	}
	m.signalV = sigV
	m.histogram = m.line - m.signalV
	m.ready = true
	return nil
}

func (m *MACD) Line() float64      { return m.line }
func (m *MACD) Signal() float64    { return m.signalV }
func (m *MACD) Histogram() float64 { return m.histogram }
func (m *MACD) Ready() bool        { return m.ready }
