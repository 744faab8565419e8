package models

// PageInformation paging state reported alongside an appended page
type PageInformation struct {
	Page    int  `json:"page"`
	Size    int  `json:"size"`
	Count   int  `json:"count"`
	HasMore bool `json:"has_more"`
}
