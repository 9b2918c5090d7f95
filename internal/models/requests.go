package models

type RegisterRequest struct {
	Username string `json:"username" form:"username" validate:"required"`
	Name     string `json:"name" form:"name" validate:"required"`
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required,min=6"`
	Phone    string `json:"phone" form:"phone" validate:"required,len=10,numeric"`
}

type LoginRequest struct {
	Email    string `json:"email" form:"email" validate:"required"`
	Password string `json:"password" form:"password"`
}

type UpdateProfileRequest struct {
	UserID         string  `json:"userId" form:"userId" validate:"required"`
	Name           *string `json:"name,omitempty" form:"name"`
	Bio            *string `json:"bio,omitempty" form:"bio" validate:"omitempty,max=150"`
	ProfilePicture *string `json:"profilePicture,omitempty" form:"profilePicture"`
}

type FollowRequest struct {
	UserID       string `json:"userId" form:"userId"`
	TargetUserID string `json:"targetUserId" form:"targetUserId"`
}

type CreatePostRequest struct {
	UserID  string   `json:"userId" form:"userId"`
	Caption string   `json:"caption" form:"caption"`
	Image   []string `json:"image" form:"image"`
}

type UserIDRequest struct {
	UserID string `json:"userId" form:"userId"`
}

type CommentRequest struct {
	UserID  string `json:"userId" form:"userId"`
	Content string `json:"content" form:"content"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Message string `json:"message" form:"message"`
	Token   string `json:"token" form:"token"`
	UserID  string `json:"userId" form:"userId"`
}
