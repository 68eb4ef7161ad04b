package service

import (
	"context"
	"time"

	"shopbooks/internal/model"
	"shopbooks/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type ItemRanking struct {
	ItemID        string          `json:"item_id" gorm:"column:item_id"`
	ItemName      string          `json:"item_name" gorm:"column:item_name"`
	ItemCode      string          `json:"item_code" gorm:"column:item_code"`
	TotalQuantity decimal.Decimal `json:"total_quantity" gorm:"column:total_quantity"`
	TotalValue    decimal.Decimal `json:"total_value" gorm:"column:total_value"`
}

type SummaryReport struct {
	From               time.Time       `json:"from"`
	To                 time.Time       `json:"to"`
	TotalSales         decimal.Decimal `json:"total_sales"`
	TotalPurchases     decimal.Decimal `json:"total_purchases"`
	TotalSalesReturns  decimal.Decimal `json:"total_sales_returns"`
	TotalExpenses      decimal.Decimal `json:"total_expenses"`
	CostOfGoodsSold    decimal.Decimal `json:"cost_of_goods_sold"`
	GrossProfit        decimal.Decimal `json:"gross_profit"`
	NetProfit          decimal.Decimal `json:"net_profit"`
	TopSoldItems       []ItemRanking   `json:"top_sold_items"`
	TopPurchasedItems  []ItemRanking   `json:"top_purchased_items"`
	InventoryValuation decimal.Decimal `json:"inventory_valuation"`
	TotalReceivables   decimal.Decimal `json:"total_receivables"`
	TotalPayables      decimal.Decimal `json:"total_payables"`
}

// --- Interface ---

type ReportService interface {
	GetSummary(ctx context.Context, from, to time.Time) (SummaryReport, error)
}

// reportService queries the database directly: reports are read-only
// aggregates and a repository layer between them and SQL would only
// restate each query.
type reportService struct {
	db          *gorm.DB
	expenseRepo repository.ExpenseRepository
}

func NewReportService(db *gorm.DB, expenseRepo repository.ExpenseRepository) ReportService {
	return &reportService{db: db, expenseRepo: expenseRepo}
}

// GetSummary aggregates sales, purchases, expenses and stock value for
// the period. Cost of goods sold is approximated with the current
// weighted-average cost of each item, which matches how the margin is
// tracked everywhere else in the system.
func (s *reportService) GetSummary(ctx context.Context, from, to time.Time) (SummaryReport, error) {
	report := SummaryReport{From: from, To: to}

	var totalSales struct{ Value decimal.Decimal }
	if err := s.db.WithContext(ctx).Table("sales_invoices").
		Select("COALESCE(SUM(total_amount), 0) as value").
		Where("status = ? AND created_at >= ? AND created_at <= ?", model.SaleStatusCompleted, from, to).
		Scan(&totalSales).Error; err != nil {
		return report, err
	}
	report.TotalSales = totalSales.Value

	var totalReturns struct{ Value decimal.Decimal }
	if err := s.db.WithContext(ctx).Table("sales_invoices").
		Select("COALESCE(SUM(total_amount), 0) as value").
		Where("status = ? AND created_at >= ? AND created_at <= ?", model.SaleStatusReturned, from, to).
		Scan(&totalReturns).Error; err != nil {
		return report, err
	}
	report.TotalSalesReturns = totalReturns.Value

	var totalPurchases struct{ Value decimal.Decimal }
	if err := s.db.WithContext(ctx).Table("purchase_invoices").
		Select("COALESCE(SUM(total_amount), 0) as value").
		Where("status = ? AND created_at >= ? AND created_at <= ?", model.PurchaseStatusConverted, from, to).
		Scan(&totalPurchases).Error; err != nil {
		return report, err
	}
	report.TotalPurchases = totalPurchases.Value

	var cogs struct{ Value decimal.Decimal }
	if err := s.db.WithContext(ctx).Table("sales_lines").
		Select("COALESCE(SUM(sales_lines.quantity / CASE WHEN sales_lines.minor_unit THEN items.conversion_factor ELSE 1 END * items.cost_major), 0) as value").
		Joins("JOIN sales_invoices ON sales_invoices.id = sales_lines.invoice_id").
		Joins("JOIN items ON items.id = sales_lines.item_id").
		Where("sales_invoices.status = ? AND sales_invoices.created_at >= ? AND sales_invoices.created_at <= ?", model.SaleStatusCompleted, from, to).
		Scan(&cogs).Error; err != nil {
		return report, err
	}
	report.CostOfGoodsSold = cogs.Value.Round(2)

	expenses, err := s.expenseRepo.SumInRange(ctx, from, to)
	if err != nil {
		return report, err
	}
	report.TotalExpenses = expenses

	report.GrossProfit = report.TotalSales.Sub(report.TotalSalesReturns).Sub(report.CostOfGoodsSold)
	report.NetProfit = report.GrossProfit.Sub(report.TotalExpenses)

	if err := s.db.WithContext(ctx).Table("sales_lines").
		Select("items.id as item_id, items.name as item_name, items.code as item_code, SUM(sales_lines.quantity / CASE WHEN sales_lines.minor_unit THEN items.conversion_factor ELSE 1 END) as total_quantity, SUM(sales_lines.line_total) as total_value").
		Joins("JOIN items ON items.id = sales_lines.item_id").
		Joins("JOIN sales_invoices ON sales_invoices.id = sales_lines.invoice_id").
		Where("sales_invoices.status = ? AND sales_invoices.created_at >= ? AND sales_invoices.created_at <= ?", model.SaleStatusCompleted, from, to).
		Group("items.id, items.name, items.code").
		Order("total_quantity DESC").
		Limit(5).
		Scan(&report.TopSoldItems).Error; err != nil {
		return report, err
	}

	if err := s.db.WithContext(ctx).Table("purchase_lines").
		Select("items.id as item_id, items.name as item_name, items.code as item_code, SUM(purchase_lines.quantity / CASE WHEN purchase_lines.minor_unit THEN items.conversion_factor ELSE 1 END) as total_quantity, SUM(purchase_lines.line_total) as total_value").
		Joins("JOIN items ON items.id = purchase_lines.item_id").
		Joins("JOIN purchase_invoices ON purchase_invoices.id = purchase_lines.invoice_id").
		Where("purchase_invoices.status = ? AND purchase_invoices.created_at >= ? AND purchase_invoices.created_at <= ?", model.PurchaseStatusConverted, from, to).
		Group("items.id, items.name, items.code").
		Order("total_quantity DESC").
		Limit(5).
		Scan(&report.TopPurchasedItems).Error; err != nil {
		return report, err
	}

	var valuation struct{ Value decimal.Decimal }
	if err := s.db.WithContext(ctx).Table("items").
		Select("COALESCE(SUM(actual_stock * cost_major), 0) as value").
		Where("deleted_at IS NULL").
		Scan(&valuation).Error; err != nil {
		return report, err
	}
	report.InventoryValuation = valuation.Value.Round(2)

	var receivables struct{ Value decimal.Decimal }
	if err := s.db.WithContext(ctx).Table("parties").
		Select("COALESCE(SUM(balance), 0) as value").
		Where("type IN ? AND balance > 0 AND deleted_at IS NULL", []string{model.PartyTypeCustomer, model.PartyTypeBoth}).
		Scan(&receivables).Error; err != nil {
		return report, err
	}
	report.TotalReceivables = receivables.Value

	var payables struct{ Value decimal.Decimal }
	if err := s.db.WithContext(ctx).Table("parties").
		Select("COALESCE(SUM(balance), 0) as value").
		Where("type IN ? AND balance > 0 AND deleted_at IS NULL", []string{model.PartyTypeSupplier, model.PartyTypeBoth}).
		Scan(&payables).Error; err != nil {
		return report, err
	}
	report.TotalPayables = payables.Value

	return report, nil
}
