package members

import "time"

type CreateMemberRequest struct {
	FirstName        string  `json:"first_name" binding:"required"`
	LastName         string  `json:"last_name" binding:"required"`
	Email            string  `json:"email" binding:"required"`
	Phone            *string `json:"phone,omitempty"`
	MembershipNumber *string `json:"membership_number,omitempty"` // 省略時は自動採番
}

// 有効/無効の切り替えは deactivate / reactivate で行う
type UpdateMemberRequest struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Email     *string `json:"email,omitempty"`
	Phone     *string `json:"phone,omitempty"`
}

type MemberResponse struct {
	MemberID         string    `json:"member_id"`
	FirstName        string    `json:"first_name"`
	LastName         string    `json:"last_name"`
	Email            string    `json:"email"`
	Phone            *string   `json:"phone,omitempty"`
	MembershipNumber string    `json:"membership_number"`
	IsActive         bool      `json:"is_active"`
	JoinedAt         time.Time `json:"joined_at"`
}

func (m Member) ToDTO() MemberResponse {
	var phone *string
	if m.Phone.Valid {
		v := m.Phone.String
		phone = &v
	}
	return MemberResponse{
		MemberID:         m.MemberID,
		FirstName:        m.FirstName,
		LastName:         m.LastName,
		Email:            m.Email,
		Phone:            phone,
		MembershipNumber: m.MembershipNumber,
		IsActive:         m.IsActive,
		JoinedAt:         m.JoinedAt,
	}
}
