package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/floralane/backoffice/internal/domain/analytics"
	"github.com/floralane/backoffice/internal/domain/order"
	"github.com/floralane/backoffice/internal/domain/product"
)

// writeJSON encodes the body with fn and writes it with the given status.
func writeJSON(w http.ResponseWriter, status int, fn func(e *jx.Encoder)) {
	var e jx.Encoder
	fn(&e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// writeError writes the uniform {code, message} error body.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("code")
		e.Int(status)
		e.FieldStart("message")
		e.Str(message)
		e.ObjEnd()
	})
}

func encodeMoney(e *jx.Encoder, d decimal.Decimal) {
	e.Float64(d.InexactFloat64())
}

func encodeTime(e *jx.Encoder, t time.Time) {
	e.Str(t.UTC().Format(time.RFC3339))
}

func encodeOrder(e *jx.Encoder, o *order.Order) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(o.ID)
	e.FieldStart("number")
	e.Str(o.Number)
	e.FieldStart("customerId")
	e.Str(o.CustomerID)
	e.FieldStart("status")
	e.Str(string(o.Status))
	e.FieldStart("totalUah")
	encodeMoney(e, o.TotalUAH)
	e.FieldStart("discountUah")
	encodeMoney(e, o.DiscountUAH)
	e.FieldStart("comment")
	e.Str(o.Comment)
	e.FieldStart("createdAt")
	encodeTime(e, o.CreatedAt)
	e.FieldStart("updatedAt")
	encodeTime(e, o.UpdatedAt)
	e.FieldStart("items")
	e.ArrStart()
	for _, it := range o.Items {
		e.ObjStart()
		e.FieldStart("productId")
		e.Str(it.ProductID)
		e.FieldStart("quantity")
		e.Int(it.Quantity)
		e.FieldStart("priceUah")
		encodeMoney(e, it.PriceUAH)
		e.FieldStart("totalUah")
		encodeMoney(e, it.TotalUAH)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.ObjEnd()
}

func encodeProduct(e *jx.Encoder, p product.Product) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(p.ID)
	e.FieldStart("name")
	e.Str(p.Name)
	e.FieldStart("priceUsd")
	encodeMoney(e, p.PriceUSD)
	e.FieldStart("priceUah")
	if p.PriceUAH.Valid {
		encodeMoney(e, p.PriceUAH.Decimal)
	} else {
		e.Null()
	}
	e.FieldStart("packSize")
	e.Int(p.PackSize)
	e.FieldStart("availability")
	e.Str(string(p.Availability))
	e.FieldStart("promo")
	e.Bool(p.Promo)
	e.FieldStart("catalogType")
	e.Str(string(p.CatalogType))
	e.FieldStart("country")
	e.Str(p.Country)
	e.ObjEnd()
}

func encodeDashboardStats(e *jx.Encoder, s *analytics.DashboardStats) {
	e.ObjStart()
	e.FieldStart("totalOrders")
	e.Int(s.TotalOrders)
	e.FieldStart("totalRevenue")
	encodeMoney(e, s.TotalRevenue)
	e.FieldStart("totalCustomers")
	e.Int(s.TotalCustomers)
	e.FieldStart("totalProducts")
	e.Int(s.TotalProducts)
	e.FieldStart("ordersChange")
	e.Float64(s.OrdersChange)
	e.FieldStart("revenueChange")
	e.Float64(s.RevenueChange)
	e.ObjEnd()
}

func encodeProductSales(e *jx.Encoder, rows []analytics.ProductSales) {
	e.ArrStart()
	for _, row := range rows {
		e.ObjStart()
		e.FieldStart("productId")
		e.Str(row.ProductID)
		e.FieldStart("name")
		e.Str(row.Name)
		e.FieldStart("quantity")
		e.Int(row.Quantity)
		e.FieldStart("revenue")
		encodeMoney(e, row.Revenue)
		e.ObjEnd()
	}
	e.ArrEnd()
}

func encodeCustomerSales(e *jx.Encoder, rows []analytics.CustomerSales) {
	e.ArrStart()
	for _, row := range rows {
		e.ObjStart()
		e.FieldStart("customerId")
		e.Str(row.CustomerID)
		e.FieldStart("name")
		e.Str(row.Name)
		e.FieldStart("totalSpent")
		encodeMoney(e, row.TotalSpent)
		e.FieldStart("totalOrders")
		e.Int(row.TotalOrders)
		e.ObjEnd()
	}
	e.ArrEnd()
}

func encodeTrend(e *jx.Encoder, points []analytics.TrendPoint) {
	e.ArrStart()
	for _, p := range points {
		e.ObjStart()
		e.FieldStart("bucket")
		e.Str(p.Bucket)
		e.FieldStart("sales")
		encodeMoney(e, p.Sales)
		e.FieldStart("orders")
		e.Int(p.Orders)
		e.ObjEnd()
	}
	e.ArrEnd()
}

func encodeCountrySales(e *jx.Encoder, rows []analytics.CountrySales) {
	e.ArrStart()
	for _, row := range rows {
		e.ObjStart()
		e.FieldStart("country")
		e.Str(row.Country)
		e.FieldStart("sales")
		encodeMoney(e, row.Sales)
		e.ObjEnd()
	}
	e.ArrEnd()
}
