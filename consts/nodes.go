package consts

const (
	// 分析师节点
	WarrenBuffett    = "warren_buffett_agent"
	CharlieMunger    = "charlie_munger_agent"
	BenGraham        = "ben_graham_agent"
	CathieWood       = "cathie_wood_agent"
	BillAckman       = "bill_ackman_agent"
	NancyPelosi      = "nancy_pelosi_agent"
	TechnicalAnalyst = "technical_analyst_agent"
	Fundamentals     = "fundamentals_agent"
	Sentiment        = "sentiment_agent"
	Valuation        = "valuation_agent"
	WSB              = "wsb_agent"

	// 风险与组合节点
	RiskManager      = "risk_management_agent"
	PortfolioManager = "portfolio_manager"

	// 圆桌讨论
	RoundTable = "round_table"
)

const (
	WorkflowGraphName = "HedgeFund-Workflow"
)
