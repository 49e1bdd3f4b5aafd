package genres

// Genre は分類マスタ（NDC の類など）。削除せず is_disabled で無効化する。
type Genre struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	IsDisabled bool   `json:"is_disabled"`
}

type CreateGenreRequest struct {
	Code string `json:"code" binding:"required"`
	Name string `json:"name" binding:"required"`
}

type UpdateGenreRequest struct {
	Name       string `json:"name" binding:"required"`
	IsDisabled bool   `json:"is_disabled"`
}
