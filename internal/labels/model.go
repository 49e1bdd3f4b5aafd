package labels

// LabelRow は背ラベル1枚分。CSV の1行になる。
type LabelRow struct {
	CallNumber string // 分類 + 著者頭文字（"913 ル" など）
	Title      string // 幅に合わせて切り詰め済み
	ISBN       string
	BookID     string
}

// ===== Requests =====

// BatchRequest: POST /books/labels
type BatchRequest struct {
	Items    []LabelItem `json:"items" binding:"required"`
	Width    int         `json:"width"`    // タイトル欄の表示幅（半角換算）。0 なら既定
	Encoding string      `json:"encoding"` // sjis（既定）| utf8
}

type LabelItem struct {
	BookID string `json:"book_id" binding:"required"`
	Count  int    `json:"count"` // 0 はスキップ
}

/*
	{
		"items": [
			{"book_id": "01J9Z3...", "count": 2},
			{"book_id": "01J9Z4...", "count": 0}
		],
		"width": 20,
		"encoding": "sjis"
	}
*/
