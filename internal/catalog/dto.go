package catalog

type CreateProductRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       int64    `json:"price"`
	Image       string   `json:"image"`
	ImageID     string   `json:"imageId"`
	Category    string   `json:"category"`
	Sizes       []string `json:"sizes"`
	Colors      []string `json:"colors"`
	Stock       int64    `json:"stock"`
	Featured    bool     `json:"featured"`
}

type UpdateProductRequest struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Price       *int64    `json:"price"`
	Image       *string   `json:"image"`
	ImageID     *string   `json:"imageId"`
	Category    *string   `json:"category"`
	Sizes       *[]string `json:"sizes"`
	Colors      *[]string `json:"colors"`
	Stock       *int64    `json:"stock"`
	Featured    *bool     `json:"featured"`
}
