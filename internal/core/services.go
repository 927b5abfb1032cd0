package core

type Services struct {
	Subscription *SubscriptionService
	Product      *ProductService
	Price        *PriceService
	Organization *OrganizationService
	AdminFlag    *AdminFlagService
}

func NewServices(db DB, defaultPriceID string) *Services {
	return &Services{
		Subscription: NewSubscriptionService(db, defaultPriceID),
		Product:      NewProductService(db),
		Price:        NewPriceService(db),
		Organization: NewOrganizationService(db),
		AdminFlag:    NewAdminFlagService(db),
	}
}
