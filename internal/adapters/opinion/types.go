package opinion

import "encoding/json"

// DTOs raw del openapi de OpinionLabs. Solo se usan dentro de este
// paquete; la conversión a domain entities se hace en mapping.go.

// apiEnvelope envuelve toda respuesta del venue.
type apiEnvelope struct {
	Errno  int             `json:"errno"`
	Errmsg string          `json:"errmsg"`
	Result json.RawMessage `json:"result"`
}

// marketData es la metadata de un mercado binario.
type marketData struct {
	TopicID    int64  `json:"topicId"`
	Title      string `json:"title"`
	YesTokenID string `json:"yesTokenId"`
	NoTokenID  string `json:"noTokenId"`
	Status     int    `json:"status"`
	IsMulti    bool   `json:"isMulti"`
}

// orderBookData es el snapshot del libro de un token.
type orderBookData struct {
	TokenID string         `json:"tokenId"`
	Bids    []bookLevelRaw `json:"bids"`
	Asks    []bookLevelRaw `json:"asks"`
}

// bookLevelRaw es un nivel de precio raw (strings para precisión).
type bookLevelRaw struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// placeOrderBody es el body del POST /openapi/order.
type placeOrderBody struct {
	TopicID   int64   `json:"topicId"`
	TokenID   string  `json:"tokenId"`
	Outcome   string  `json:"outcome"`
	Side      string  `json:"side"`
	OrderType int     `json:"orderType"` // 2 = limit
	Price     string  `json:"price"`
	Amount    float64 `json:"amount"`
}

// placeOrderData es el result de un place aceptado.
type placeOrderData struct {
	OrderData orderData `json:"orderData"`
}

// orderData es el estado de una orden en el venue. Amounts llegan como
// strings JSON, usamos json.Number.
type orderData struct {
	OrderID      string      `json:"orderId"`
	Status       string      `json:"status"`
	Price        string      `json:"price"`
	Amount       json.Number `json:"amount"`
	FilledAmount json.Number `json:"filledAmount"`
}

// orderStatusData es el result del GET /openapi/order/{id}.
type orderStatusData struct {
	OrderData orderData `json:"orderData"`
}

// balancesData es el result del GET /openapi/balance.
type balancesData struct {
	Balances []balanceRaw `json:"balances"`
}

// balanceRaw es un saldo por moneda.
type balanceRaw struct {
	Currency         string      `json:"currency"`
	AvailableBalance json.Number `json:"availableBalance"`
	FrozenBalance    json.Number `json:"frozenBalance"`
	TotalBalance     json.Number `json:"totalBalance"`
}
