package domain

// Product описывает товар на складе
type Product struct {
	ID       int64
	Name     string // Уникально без учета регистра
	Unit     *string
	Category *string
	Brand    *string
	Stock    int64
	Status   *string
	Image    *string
}

func NewProduct(name string, unit, category, brand *string, stock int64, status, image *string) *Product {
	return &Product{
		Name:     name,
		Unit:     unit,
		Category: category,
		Brand:    brand,
		Stock:    stock,
		Status:   status,
		Image:    image,
	}
}
