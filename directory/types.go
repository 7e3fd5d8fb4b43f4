package directory

// Wire types for the Graph-style domain API. Service configuration
// records come back as a loosely typed list discriminated by
// @odata.type, every variant's fields are flattened into one struct
// and picked apart during mapping.

type recordList struct {
	Value []serviceRecord `json:"value"`
}

type serviceRecord struct {
	ODataType        string `json:"@odata.type"`
	ID               string `json:"id"`
	Label            string `json:"label"`
	RecordType       string `json:"recordType"`
	IsOptional       bool   `json:"isOptional"`
	SupportedService string `json:"supportedService"`
	TTL              int    `json:"ttl"`

	// Mx
	MailExchange string `json:"mailExchange"`
	Preference   *int   `json:"preference"`

	// Txt
	Text string `json:"text"`

	// CName
	CanonicalName string `json:"canonicalName"`

	// Srv
	NameTarget string `json:"nameTarget"`
	Port       int    `json:"port"`
	Priority   int    `json:"priority"`
	Weight     int    `json:"weight"`
	Service    string `json:"service"`
	Protocol   string `json:"protocol"`
}

type apiError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
