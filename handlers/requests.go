package handlers

// Request schemas. The validate tags are enforced by middleware.Validate before a
// handler runs; handlers decode the same body again into these types.

type SignupRequest struct {
	Name     string `json:"name" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type AddBookRequest struct {
	Title       string `json:"title" validate:"required"`
	Author      string `json:"author" validate:"required"`
	Description string `json:"description" validate:"required"`
	Genre       string `json:"genre" validate:"required"`
}

type CreateReviewRequest struct {
	Rating  *float64 `json:"rating" validate:"required,min=1,max=5"`
	Comment string   `json:"comment" validate:"max=2000"`
}

type UpdateReviewRequest struct {
	Rating  *float64 `json:"rating" validate:"omitempty,min=1,max=5"`
	Comment *string  `json:"comment" validate:"omitempty,max=2000"`
}
