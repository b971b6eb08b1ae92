package models

// All lists every persisted model in dependency order. It backs sqlite
// auto-migration and repository tests; Postgres uses the goose migrations.
func All() []any {
	return []any{
		&User{},
		&LensBrand{},
		&LensProduct{},
		&Coating{},
		&LensMaterial{},
		&LensTinting{},
		&LensPriceRecord{},
		&Location{},
		&Tray{},
		&Vendor{},
		&Customer{},
		&PriceMapping{},
		&SaleOrder{},
		&SaleOrderItem{},
		&AuditLog{},
		&ErrorLog{},
	}
}
