package transport

type RegisterRequest struct {
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	Name        string  `json:"name"`
	CompanyName *string `json:"companyName"`
	ContactInfo *string `json:"contactInfo"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
