package shared

// CRM, catalog and quoting permissions declared for RBAC.
const (
	// Lead permissions
	PermLeadView = "crm.lead.view"
	PermLeadEdit = "crm.lead.edit"

	// Loss reason administration
	PermLossManage = "crm.loss.manage"

	// Catalog permissions
	PermProductView   = "catalog.product.view"
	PermProductEdit   = "catalog.product.edit"
	PermPromotionView = "catalog.promotion.view"
	PermPromotionEdit = "catalog.promotion.edit"

	// Quote permissions
	PermQuoteView   = "sales.quote.view"
	PermQuoteCreate = "sales.quote.create"
)

// CRMScopes lists all permissions related to lead management.
func CRMScopes() []string {
	return []string{
		PermLeadView,
		PermLeadEdit,
		PermLossManage,
	}
}

// CatalogScopes lists all permissions related to the product catalog.
func CatalogScopes() []string {
	return []string{
		PermProductView,
		PermProductEdit,
		PermPromotionView,
		PermPromotionEdit,
	}
}

// QuoteScopes lists all permissions related to quoting.
func QuoteScopes() []string {
	return []string{
		PermQuoteView,
		PermQuoteCreate,
	}
}

// AllScopes aggregates every permission the application declares.
func AllScopes() []string {
	scopes := CoreScopes()
	scopes = append(scopes, CRMScopes()...)
	scopes = append(scopes, CatalogScopes()...)
	scopes = append(scopes, QuoteScopes()...)
	return scopes
}
