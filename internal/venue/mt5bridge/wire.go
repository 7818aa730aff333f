package mt5bridge

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Message types understood by the bridge Expert Advisor.
const (
	typePing         = "ping"
	typeSymbolSelect = "symbol_select"
	typeSymbolInfo   = "symbol_info"
	typeOrderSend    = "order_send"
	typeLastError    = "last_error"
	typeShutdown     = "shutdown"
)

// One JSON object per line in each direction.
type request struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type response struct {
	ID     string          `json:"id"`
	OK     bool            `json:"ok"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

type symbolPayload struct {
	Symbol string `json:"symbol"`
}

type selectResult struct {
	Selected bool `json:"selected"`
}

type symbolInfoResult struct {
	Name       string          `json:"name"`
	VolumeMin  decimal.Decimal `json:"volume_min"`
	VolumeMax  decimal.Decimal `json:"volume_max"`
	VolumeStep decimal.Decimal `json:"volume_step"`
	Digits     int             `json:"digits"`
}

// orderPayload mirrors MqlTradeRequest field names. Decimals travel as
// JSON strings.
type orderPayload struct {
	Action      int             `json:"action"`
	Symbol      string          `json:"symbol"`
	Volume      decimal.Decimal `json:"volume"`
	Type        int             `json:"type"`
	Price       decimal.Decimal `json:"price"`
	SL          decimal.Decimal `json:"sl"`
	TP          decimal.Decimal `json:"tp"`
	Deviation   int             `json:"deviation"`
	Magic       int             `json:"magic"`
	Comment     string          `json:"comment"`
	TypeTime    int             `json:"type_time"`
	TypeFilling int             `json:"type_filling"`
}

type orderResult struct {
	Retcode int    `json:"retcode"`
	Order   uint64 `json:"order"`
	Comment string `json:"comment"`
}

type lastErrorResult struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
