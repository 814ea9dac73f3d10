package partner

// SetStateRequest switches order intake. Values true, 1, yes and on enable it.
type SetStateRequest struct {
	State string `json:"state" form:"state" binding:"required"`
}

// UpdateFromURLRequest points the shop at a price list to download
type UpdateFromURLRequest struct {
	URL string `json:"url" form:"url" binding:"required,max=200"`
}

// HistoryQuery limits the import history listing
type HistoryQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}
