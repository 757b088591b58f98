package dto

// VideoSummaryDTO 单个作业目录的产物概览，产物不存在时对应字段为 null
type VideoSummaryDTO struct {
	Folder    string  `json:"folder"`
	URL       *string `json:"url"`
	Thumbnail *string `json:"thumbnail"`
	// 以下字段来自作业状态存储，未知作业不输出
	Status   string `json:"status,omitempty"`
	Progress *int   `json:"progress,omitempty"`
	Error    string `json:"error,omitempty"`
}

// CatalogDTO 作业目录列表
type CatalogDTO struct {
	Count  int               `json:"count"`
	Videos []VideoSummaryDTO `json:"videos"`
}
