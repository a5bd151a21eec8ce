package app

import (
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API endpoints on the authenticated router.
func RegisterRoutes(api *mux.Router, deps *Dependencies) {

	// User
	api.HandleFunc("/user/current", deps.UserHandler.CurrentUser).Methods("GET")

	// Boards
	api.HandleFunc("/boards", deps.BoardHandler.ListBoards).Methods("GET")
	api.HandleFunc("/boards", deps.BoardHandler.CreateBoard).Methods("POST")
	api.HandleFunc("/boards/{boardId}", deps.BoardHandler.GetBoard).Methods("GET")
	api.HandleFunc("/boards/{boardId}", deps.BoardHandler.RenameBoard).Methods("PUT")
	api.HandleFunc("/boards/{boardId}", deps.BoardHandler.DeleteBoard).Methods("DELETE")
	api.HandleFunc("/boards/{boardId}/role", deps.BoardHandler.GetRole).Methods("GET")
	api.HandleFunc("/boards/{boardId}/members/{userId}", deps.BoardHandler.SetMember).Methods("PUT")
	api.HandleFunc("/boards/{boardId}/members/{userId}", deps.BoardHandler.RemoveMember).Methods("DELETE")

	// Transactions
	api.HandleFunc("/boards/{boardId}/transactions", deps.LedgerHandler.ListTransactions).Methods("GET")
	api.HandleFunc("/boards/{boardId}/transactions", deps.LedgerHandler.AddTransaction).Methods("POST")
	api.HandleFunc("/boards/{boardId}/transactions/{transactionId}", deps.LedgerHandler.GetTransaction).Methods("GET")
	api.HandleFunc("/boards/{boardId}/transactions/{transactionId}", deps.LedgerHandler.UpdateTransaction).Methods("PUT")
	api.HandleFunc("/boards/{boardId}/transactions/{transactionId}", deps.LedgerHandler.DeleteTransaction).Methods("DELETE")
	api.HandleFunc("/boards/{boardId}/totals", deps.LedgerHandler.GetTotals).Methods("GET")
	api.HandleFunc("/boards/{boardId}/stats", deps.StatsHandler.GetStats).Methods("GET")

	// Bills
	api.HandleFunc("/boards/{boardId}/bills", deps.BillHandler.ListBills).Methods("GET")
	api.HandleFunc("/boards/{boardId}/bills", deps.BillHandler.CreateBill).Methods("POST")
	api.HandleFunc("/boards/{boardId}/bills/{billId}", deps.BillHandler.GetBill).Methods("GET")
	api.HandleFunc("/boards/{boardId}/bills/{billId}", deps.BillHandler.UpdateBill).Methods("PUT")
	api.HandleFunc("/boards/{boardId}/bills/{billId}", deps.BillHandler.DeleteBill).Methods("DELETE")
	api.HandleFunc("/boards/{boardId}/bills/{billId}/paid", deps.BillHandler.MarkPaid).Methods("PUT")
	api.HandleFunc("/boards/{boardId}/bills/{billId}/paid", deps.BillHandler.MarkUnpaid).Methods("DELETE")
	api.HandleFunc("/boards/{boardId}/bills/{billId}/share", deps.BillHandler.ShareBill).Methods("POST")
	api.HandleFunc("/boards/{boardId}/bills/{billId}/payment-link", deps.BillHandler.PaymentLink).Methods("GET")
	api.HandleFunc("/boards/{boardId}/integrity", deps.BillHandler.Verify).Methods("GET")
	api.HandleFunc("/boards/{boardId}/integrity", deps.BillHandler.Heal).Methods("POST")

	// Month overview and rollover
	api.HandleFunc("/boards/{boardId}/overview", deps.RolloverHandler.GetOverview).Methods("GET")
	api.HandleFunc("/boards/{boardId}/summaries", deps.RolloverHandler.ListSummaries).Methods("GET")
	api.HandleFunc("/boards/{boardId}/summaries/{month}", deps.RolloverHandler.PersistSummary).Methods("PUT")

	// Savings goals
	api.HandleFunc("/boards/{boardId}/goals", deps.SavingsHandler.ListGoals).Methods("GET")
	api.HandleFunc("/boards/{boardId}/goals", deps.SavingsHandler.CreateGoal).Methods("POST")
	api.HandleFunc("/boards/{boardId}/goals/{goalId}", deps.SavingsHandler.UpdateGoal).Methods("PUT")
	api.HandleFunc("/boards/{boardId}/goals/{goalId}", deps.SavingsHandler.DeleteGoal).Methods("DELETE")
	api.HandleFunc("/boards/{boardId}/goals/{goalId}/deposit", deps.SavingsHandler.Deposit).Methods("POST")
	api.HandleFunc("/boards/{boardId}/goals/{goalId}/withdraw", deps.SavingsHandler.Withdraw).Methods("POST")

	// Live push
	if deps.LiveHub != nil {
		api.HandleFunc("/boards/{boardId}/live", deps.LiveHub.HandleLive).Methods("GET")
	}
}
