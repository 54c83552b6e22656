package ledger

// Well-known account codes. Event handlers resolve accounts by these codes at
// posting time; a missing required code is a configuration error, never a
// silent default.
const (
	CodeCash               = "1010"
	CodeBank               = "1020"
	CodeAccountsReceivable = "1030"
	CodeAccountsPayable    = "2010"
	CodeDeferredRevenue    = "2020"
	CodeLoansPayable       = "2030"
	CodeChecksPayable      = "2040"
	CodeEmployeePayable    = "2050"
	CodeOwnerEquity        = "3010"
	CodeCafeRevenue        = "4010"
	CodeAssessmentRevenue  = "4020"
	CodeMaterialsExpense   = "5010"
	CodeSalaryExpense      = "5020"
	CodeSalesDiscount      = "5030"
	CodeSalesRefund        = "5040"
	CodeGeneralExpense     = "5090"
)

// DefaultChart returns the accounts seeded for a fresh installation. Tests and
// the seed script share it.
func DefaultChart() []Account {
	return []Account{
		{Code: CodeCash, Name: "صندوق", Type: AccountTypeAsset, IsActive: true},
		{Code: CodeBank, Name: "بانک", Type: AccountTypeAsset, IsActive: true},
		{Code: CodeAccountsReceivable, Name: "حساب‌های دریافتنی", Type: AccountTypeAsset, IsActive: true},
		{Code: CodeAccountsPayable, Name: "حساب‌های پرداختنی", Type: AccountTypeLiability, IsActive: true},
		{Code: CodeDeferredRevenue, Name: "درآمد معوق اشتراک", Type: AccountTypeLiability, IsActive: true},
		{Code: CodeLoansPayable, Name: "وام‌های پرداختنی", Type: AccountTypeLiability, IsActive: true},
		{Code: CodeChecksPayable, Name: "چک‌های پرداختنی", Type: AccountTypeLiability, IsActive: true},
		{Code: CodeEmployeePayable, Name: "بدهی به کارکنان", Type: AccountTypeLiability, IsActive: true},
		{Code: CodeOwnerEquity, Name: "سرمایه", Type: AccountTypeEquity, IsActive: true},
		{Code: CodeCafeRevenue, Name: "درآمد کافه", Type: AccountTypeRevenue, IsActive: true},
		{Code: CodeAssessmentRevenue, Name: "درآمد ارزیابی", Type: AccountTypeRevenue, IsActive: true},
		{Code: CodeMaterialsExpense, Name: "هزینه مواد اولیه", Type: AccountTypeExpense, IsActive: true},
		{Code: CodeSalaryExpense, Name: "هزینه حقوق", Type: AccountTypeExpense, IsActive: true},
		{Code: CodeSalesDiscount, Name: "تخفیف فروش", Type: AccountTypeExpense, IsActive: true},
		{Code: CodeSalesRefund, Name: "برگشت از فروش", Type: AccountTypeExpense, IsActive: true},
		{Code: CodeGeneralExpense, Name: "هزینه‌های عمومی", Type: AccountTypeExpense, IsActive: true},
	}
}
