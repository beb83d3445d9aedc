package clientstate

type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Image       string  `json:"image"`
	Category    string  `json:"category"`
	IsFeatured  bool    `json:"isFeatured"`
}

// NewProduct is the create payload. Image may be a base64 data URL.
type NewProduct struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Image       string  `json:"image,omitempty"`
	Category    string  `json:"category"`
}

type productList struct {
	Products []Product `json:"products"`
}
