package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/lendingledger/internal/lending/application"
	"github.com/wyfcoding/lendingledger/internal/lending/infrastructure/custody"
	"github.com/wyfcoding/lendingledger/internal/lending/infrastructure/messaging"
	"github.com/wyfcoding/lendingledger/internal/lending/infrastructure/oracle"
	"github.com/wyfcoding/lendingledger/internal/lending/infrastructure/persistence/memory"
	"github.com/wyfcoding/lendingledger/pkg/metrics"
)

func newTestRouter(t *testing.T) (*gin.Engine, *custody.MemoryGateway) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gw := custody.NewMemoryGateway()
	svc := application.NewLendingService(
		memory.NewLedgerRepository(),
		gw,
		oracle.NewStaticOracle(10000),
		messaging.NoopEventPublisher{},
		metrics.New("test"),
		application.Assets{Collateral: "SOL", Stable: "USDC", PriceFeedID: "SOL-USD"},
	)

	router := gin.New()
	router.Use(RequestID())
	NewHandler(svc).RegisterRoutes(router.Group("/api/v1"))
	return router, gw
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func setupFundedUser(t *testing.T, router *gin.Engine, gw *custody.MemoryGateway, userID string) {
	t.Helper()

	w := doJSON(t, router, http.MethodPost, "/api/v1/accounts", gin.H{"user_id": userID})
	require.Equal(t, http.StatusCreated, w.Code)

	gw.Mint(context.Background(), application.UserAccount(userID), "SOL", 10000)
	gw.Mint(context.Background(), "treasury", "USDC", 100_000)

	w = doJSON(t, router, http.MethodPost, "/api/v1/pool/fund", gin.H{"source": "treasury", "amount": 100_000})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestOpenAccountConflict(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/accounts", gin.H{"user_id": "alice"})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	w = doJSON(t, router, http.MethodPost, "/api/v1/accounts", gin.H{"user_id": "alice"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestGetTiers(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/v1/tiers", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Tiers []struct {
			LTV uint8 `json:"ltv"`
			APY uint8 `json:"apy"`
		} `json:"tiers"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Tiers, 4)
	assert.Equal(t, uint8(20), resp.Tiers[0].LTV)
	assert.Equal(t, uint8(0), resp.Tiers[0].APY)
	assert.Equal(t, uint8(50), resp.Tiers[3].LTV)
	assert.Equal(t, uint8(8), resp.Tiers[3].APY)
}

func TestLoanLifecycleOverHTTP(t *testing.T) {
	router, gw := newTestRouter(t)
	setupFundedUser(t, router, gw, "alice")

	w := doJSON(t, router, http.MethodPost, "/api/v1/loans", gin.H{
		"user_id":        "alice",
		"deposit_amount": 6000,
		"borrow_amount":  1000,
		"ltv":            20,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var loan application.LoanView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &loan))
	assert.Equal(t, uint64(1), loan.LoanID)
	assert.Equal(t, uint64(5000), loan.Collateral)

	w = doJSON(t, router, http.MethodGet, "/api/v1/ledgers/alice", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var view application.LedgerView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, uint64(1000), view.CollateralBalance)
	require.Len(t, view.Loans, 1)

	w = doJSON(t, router, http.MethodPost, "/api/v1/loans/1/repay", gin.H{
		"user_id": "alice",
		"amount":  1000,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/ledgers/alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, uint64(6000), view.CollateralBalance)
	assert.Empty(t, view.Loans)
}

func TestCreateLoanInvalidLTV(t *testing.T) {
	router, gw := newTestRouter(t)
	setupFundedUser(t, router, gw, "alice")

	w := doJSON(t, router, http.MethodPost, "/api/v1/loans", gin.H{
		"user_id":        "alice",
		"deposit_amount": 6000,
		"borrow_amount":  1000,
		"ltv":            30,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateLoanInsufficientCollateral(t *testing.T) {
	router, gw := newTestRouter(t)
	setupFundedUser(t, router, gw, "alice")

	w := doJSON(t, router, http.MethodPost, "/api/v1/loans", gin.H{
		"user_id":       "alice",
		"borrow_amount": 1000,
		"ltv":           20,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestRepayTooHigh(t *testing.T) {
	router, gw := newTestRouter(t)
	setupFundedUser(t, router, gw, "alice")

	w := doJSON(t, router, http.MethodPost, "/api/v1/loans", gin.H{
		"user_id":        "alice",
		"deposit_amount": 6000,
		"borrow_amount":  1000,
		"ltv":            20,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/v1/loans/1/repay", gin.H{
		"user_id": "alice",
		"amount":  2000,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestRepayUnknownLoan(t *testing.T) {
	router, gw := newTestRouter(t)
	setupFundedUser(t, router, gw, "alice")

	w := doJSON(t, router, http.MethodPost, "/api/v1/loans/42/repay", gin.H{
		"user_id": "alice",
		"amount":  100,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetLedgerUnknownUser(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/v1/ledgers/ghost", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
