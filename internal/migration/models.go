package migration

import (
	authdomain "github.com/resqfood/resq/internal/auth/domain"
	orderdomain "github.com/resqfood/resq/internal/order/domain"
	productdomain "github.com/resqfood/resq/internal/product/domain"
	profiledomain "github.com/resqfood/resq/internal/profile/domain"
	storedomain "github.com/resqfood/resq/internal/store/domain"
)

func allModels() []any {
	return []any{
		&authdomain.Account{},
		&authdomain.Session{},
		&profiledomain.Profile{},
		&storedomain.Store{},
		&productdomain.Product{},
		&orderdomain.Order{},
	}
}
