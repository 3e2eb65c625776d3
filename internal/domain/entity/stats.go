package entity

// AdminStats 管理后台概览
type AdminStats struct {
	PendingNovels   int64 `json:"pending_novels"`
	PendingChapters int64 `json:"pending_chapters"`
	TotalNovels     int64 `json:"total_novels"`
	TotalChapters   int64 `json:"total_chapters"`
	TotalUsers      int64 `json:"total_users"`
}

// ChapterTotals 小说章节聚合结果
type ChapterTotals struct {
	Chapters int
	Words    int
}

// RatingSummary 评分聚合结果
type RatingSummary struct {
	Average float64
	Count   int
}

// ApprovalCounts 按审核状态统计的数量
type ApprovalCounts struct {
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
	Rejected int64 `json:"rejected"`
	Drafts   int64 `json:"drafts"`
}
