package grid

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/orderenhancer/internal/logging"
)

// Store tables the computed columns read from.
const (
	OrderTable        = "sales_order"
	OrderAddressTable = "sales_order_address"
	OrderItemTable    = "sales_order_item"
)

// Computed column aliases.
const (
	ColGovernorate   = "governorate"
	ColCustomerPhone = "customer_phone"
	ColCustomerNote  = "customer_note"
	ColProductNames  = "product_names"
	ColProductSkus   = "product_skus"
	ColProductsCount = "total_products_ordered"
)

// BaseColumns are the sales_order_grid columns kept after the select list
// is reset, in grid order.
var BaseColumns = []string{
	"entity_id",
	"status",
	"store_id",
	"store_name",
	"customer_id",
	"base_grand_total",
	"base_total_paid",
	"grand_total",
	"total_paid",
	"increment_id",
	"base_currency_code",
	"order_currency_code",
	"shipping_name",
	"billing_name",
	"created_at",
	"updated_at",
	"billing_address",
	"shipping_address",
	"shipping_information",
	"customer_email",
	"customer_group",
	"subtotal",
	"shipping_and_handling",
	"customer_name",
	"payment_method",
	"total_refunded",
}

// ComputedColumns lists the aliases the Augmenter attaches, in order.
var ComputedColumns = []string{
	ColGovernorate,
	ColCustomerPhone,
	ColCustomerNote,
	ColProductNames,
	ColProductSkus,
	ColProductsCount,
}

// ProductColumnsFlag reports whether the computed columns are enabled for a store.
type ProductColumnsFlag interface {
	IsProductColumnsEnabled(ctx context.Context, storeID *int) bool
}

// Augmenter is the BeforeLoadPlugin that attaches the computed columns.
type Augmenter struct {
	flags       ProductColumnsFlag
	placeholder string
	separator   string
}

// NewAugmenter returns an Augmenter. placeholder fills governorate when an
// order has neither region nor city; separator joins product names and SKUs.
func NewAugmenter(flags ProductColumnsFlag, placeholder, separator string) *Augmenter {
	return &Augmenter{flags: flags, placeholder: placeholder, separator: separator}
}

// BeforeLoad implements BeforeLoadPlugin. A loaded collection is left alone.
func (a *Augmenter) BeforeLoad(ctx context.Context, c *Collection) {
	if !a.flags.IsProductColumnsEnabled(ctx, c.StoreID()) {
		return
	}
	if c.IsLoaded() {
		return
	}

	a.AddProductColumns(c)
	logging.FromContext(ctx).Debug("order grid columns added", "columns", len(ComputedColumns))
}

// AddProductColumns rewrites the select list of c: the base grid columns
// followed by one correlated subquery per computed column.
func (a *Augmenter) AddProductColumns(c *Collection) {
	sel := c.Select()
	d := c.Dialect()

	sel.ResetColumns()
	for _, name := range BaseColumns {
		sel.Columns(Col(name, "main_table."+name))
	}

	placeholder := d.QuoteString(a.placeholder)
	shipping := a.localitySubquery(c, "soa", "shipping")
	billing := a.localitySubquery(c, "soa_b", "billing")
	sel.Columns(Col(ColGovernorate,
		fmt.Sprintf("COALESCE(%s, %s, %s)", shipping.Subquery(), billing.Subquery(), placeholder)))

	phone := NewSelect(d).
		From(c.Table(OrderAddressTable), "soa_phone", Expr("soa_phone.telephone")).
		Where("soa_phone.parent_id = main_table.entity_id").
		Where("soa_phone.address_type = " + d.QuoteString("billing")).
		Limit(1, 0)
	sel.Columns(Col(ColCustomerPhone, phone.Subquery()))

	note := NewSelect(d).
		From(c.Table(OrderTable), "so", Expr("so.customer_note")).
		Where("so.entity_id = main_table.entity_id").
		Limit(1, 0)
	sel.Columns(Col(ColCustomerNote, note.Subquery()))

	names := a.itemsSubquery(c, d.GroupConcat("soi.name", a.separator))
	skus := a.itemsSubquery(c, d.GroupConcat("soi.sku", a.separator))
	count := a.itemsSubquery(c, d.Concat(
		"COUNT(soi.item_id)",
		d.QuoteString(" منتج ("),
		d.CastInteger("SUM(soi.qty_ordered)"),
		d.QuoteString(" قطعة)"),
	))

	sel.Columns(
		Col(ColProductNames, names.Subquery()),
		Col(ColProductSkus, skus.Subquery()),
		Col(ColProductsCount, count.Subquery()),
	)
}

// localitySubquery picks region, else city, else the placeholder from the
// order's address of addressType.
func (a *Augmenter) localitySubquery(c *Collection, alias, addressType string) *Select {
	d := c.Dialect()
	expr := fmt.Sprintf("COALESCE(NULLIF(TRIM(%[1]s.region), ''), NULLIF(TRIM(%[1]s.city), ''), %[2]s)",
		alias, d.QuoteString(a.placeholder))

	return NewSelect(d).
		From(c.Table(OrderAddressTable), alias, Expr(expr)).
		Where(alias + ".parent_id = main_table.entity_id").
		Where(alias + ".address_type = " + d.QuoteString(addressType)).
		Limit(1, 0)
}

// itemsSubquery aggregates expr over the order's top-level items.
// Child items of configurable and bundle products are skipped.
func (a *Augmenter) itemsSubquery(c *Collection, expr string) *Select {
	return NewSelect(c.Dialect()).
		From(c.Table(OrderItemTable), "soi", Expr(expr)).
		Where("soi.order_id = main_table.entity_id").
		Where("soi.parent_item_id IS NULL")
}
