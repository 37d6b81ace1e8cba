package demandware

type variationPayload struct {
	Product *productPayload `json:"product"`
}

type productPayload struct {
	Id                  string               `json:"id"`
	ProductName         string               `json:"productName"`
	Brand               string               `json:"brand"`
	Upc                 string               `json:"upc"`
	Available           bool                 `json:"available"`
	ReadyToOrder        bool                 `json:"readyToOrder"`
	NotifyMe            bool                 `json:"notifyMe"`
	Availability        *availabilityPayload `json:"availability"`
	Price               *pricePayload        `json:"price"`
	VariationAttributes []attributePayload   `json:"variationAttributes"`
}

type availabilityPayload struct {
	Status   string   `json:"status"`
	Messages []string `json:"messages"`
}

type pricePayload struct {
	Sales    *moneyPayload `json:"sales"`
	List     *moneyPayload `json:"list"`
	Discount float64       `json:"discount"`
}

type moneyPayload struct {
	Value    float64 `json:"value"`
	Currency string  `json:"currency"`
}

type attributePayload struct {
	AttributeId string                  `json:"attributeId"`
	DisplayName string                  `json:"displayName"`
	Values      []attributeValuePayload `json:"values"`
}

type attributeValuePayload struct {
	Id           string `json:"id"`
	DisplayValue string `json:"displayValue"`
	Selectable   bool   `json:"selectable"`
	ImageUrl     string `json:"imageUrl"`
}
