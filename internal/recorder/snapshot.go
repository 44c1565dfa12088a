package recorder

import (
	"github.com/vmihailenco/msgpack/v5"

	"StockAnalyzer/internal/model"
)

// Snapshot is the msgpack payload stored with each security row.
type Snapshot struct {
	Name          string              `msgpack:"name" json:"name"`
	Country       string              `msgpack:"country,omitempty" json:"country,omitempty"`
	Sector        string              `msgpack:"sector,omitempty" json:"sector,omitempty"`
	Industry      string              `msgpack:"industry,omitempty" json:"industry,omitempty"`
	AsOf          int64               `msgpack:"as_of" json:"as_of"`
	Returns       map[string]*float64 `msgpack:"returns" json:"returns"`
	Week52High    *float64            `msgpack:"high_52w" json:"high_52w"`
	Week52Low     *float64            `msgpack:"low_52w" json:"low_52w"`
	Shares        *float64            `msgpack:"shares" json:"shares"`
	BuyPrice      *float64            `msgpack:"buy_price" json:"buy_price"`
	BuyTradeDate  string              `msgpack:"buy_trade_date,omitempty" json:"buy_trade_date,omitempty"`
	MarketCap     *float64            `msgpack:"market_cap" json:"market_cap"`
	PERatio       *float64            `msgpack:"pe_ratio" json:"pe_ratio"`
	Beta          *float64            `msgpack:"beta" json:"beta"`
	DividendYield *float64            `msgpack:"dividend_yield" json:"dividend_yield"`
}

func encodeSnapshot(m *model.SecurityMetrics) ([]byte, error) {
	s := Snapshot{
		Name:          m.Name,
		Country:       m.Country,
		Sector:        m.Sector,
		Industry:      m.Industry,
		AsOf:          m.AsOf.Unix(),
		Returns:       make(map[string]*float64, len(m.Returns)),
		Week52High:    m.Week52High.Ptr(),
		Week52Low:     m.Week52Low.Ptr(),
		Shares:        m.Shares.Ptr(),
		BuyPrice:      m.BuyPrice.Ptr(),
		MarketCap:     m.MarketCap.Ptr(),
		PERatio:       m.PERatio.Ptr(),
		Beta:          m.Beta.Ptr(),
		DividendYield: m.DividendYield.Ptr(),
	}
	for label, v := range m.Returns {
		s.Returns[label] = v.Ptr()
	}
	if m.BuyTradeDate.Valid {
		s.BuyTradeDate = m.BuyTradeDate.Time.Format("2006-01-02")
	}
	return msgpack.Marshal(&s)
}

func decodeSnapshot(b []byte) (*Snapshot, error) {
	var s Snapshot
	if err := msgpack.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
