package models

// QuerySpec 批量模式下的单条搜索请求
// 来自查询文件的一行: "关键词" 或 "关键词,地点"
type QuerySpec struct {
	Query    string `json:"query"`
	Location string `json:"location,omitempty"`
}
