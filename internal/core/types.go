package core

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/orderenhancer/internal/export"
	"github.com/JonMunkholm/orderenhancer/internal/grid"
)

// GridPage is one page of the augmented order grid.
type GridPage struct {
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
	StoreID  *int       `json:"store_id,omitempty"`
	Columns  []string   `json:"columns"`
	Rows     []grid.Row `json:"rows"`
}

// Format is an export file format.
type Format string

const (
	FormatCSV Format = "csv"
	FormatXML Format = "xml"
)

// ParseFormat accepts "csv" or "xml" in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatXML:
		return f, nil
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

// ExportColumn maps a header label of the export file to a grid column.
// Columns the grid does not select export as empty values.
type ExportColumn struct {
	Label  string
	Column string
}

// DefaultExportColumns is the header the store writes for an order grid
// export, including the columns contributed by other store extensions.
// The phone column appears twice, once from the grid and once from the
// computed column.
var DefaultExportColumns = []ExportColumn{
	{"ID", "increment_id"},
	{"Purchase Point", "store_name"},
	{"Purchase Date", "created_at"},
	{"Bill-to Name", "billing_name"},
	{"Ship-to Name", "shipping_name"},
	{"Grand Total (Base)", "base_grand_total"},
	{"Grand Total (Purchased)", "grand_total"},
	{"Status", "status"},
	{"Billing Address", "billing_address"},
	{"Shipping Address", "shipping_address"},
	{"Shipping Information", "shipping_information"},
	{"Customer Email", "customer_email"},
	{"Customer Group", "customer_group"},
	{"Subtotal", "subtotal"},
	{"Shipping and Handling", "shipping_and_handling"},
	{"Customer Name", "customer_name"},
	{"Payment Method", "payment_method"},
	{"Total Refunded", "total_refunded"},
	{"Customer Phone", grid.ColCustomerPhone},
	{"Allocated sources", "allocated_sources"},
	{"Pickup Location Code", "pickup_location_code"},
	{"Created by (Login as Customer)", "created_by_login_as_customer"},
	{"Tracking Information", "tracking_information"},
	{"Lock", "lock"},
	{"Meta Order ID", "meta_order_id"},
	{export.LabelGovernorate, grid.ColGovernorate},
	{"Customer Phone", grid.ColCustomerPhone},
	{export.LabelCustomerNote, grid.ColCustomerNote},
	{"Product Names", grid.ColProductNames},
	{"Product SKUs", grid.ColProductSkus},
	{export.LabelProductsOrdered, grid.ColProductsCount},
}
