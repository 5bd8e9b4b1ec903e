package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/talentlink/talentlink/internal/handlers"
	"github.com/talentlink/talentlink/internal/middleware"
	"github.com/talentlink/talentlink/internal/models"
	"github.com/talentlink/talentlink/internal/services/notify"
	"github.com/talentlink/talentlink/internal/testutil"
	"github.com/talentlink/talentlink/internal/utils"
)

const testSecret = "test-secret"

func setupApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	db := testutil.OpenDB(t)
	notifier := notify.NewService(db, nil, nil)

	proposalH := handlers.NewProposalHandler(db, notifier)
	contractH := handlers.NewContractHandler(db, notifier)
	workspaceH := handlers.NewWorkspaceHandler(db, notifier)
	taskH := handlers.NewTaskHandler(db, notifier)
	paymentH := handlers.NewPaymentHandler(db, notifier)
	reviewH := handlers.NewReviewHandler(db, notifier)

	app := fiber.New()
	api := app.Group("/api", middleware.JWTFromHeader(testSecret), middleware.AttachJWTLocals())

	client := middleware.RequireRoles(string(models.RoleClient))
	freelancer := middleware.RequireRoles(string(models.RoleFreelancer))

	api.Post("/proposals/:id/accept", client, proposalH.Accept)
	api.Post("/contracts/:id/sign", contractH.Sign)
	api.Post("/workspaces/:id/mark_complete", workspaceH.MarkComplete)
	api.Get("/workspaces/:id/payment_stats", workspaceH.PaymentStats)
	api.Post("/tasks", taskH.Create)
	api.Post("/tasks/:id/update_status", taskH.UpdateStatus)
	api.Post("/payments", client, paymentH.Create)
	api.Post("/payments/:id/confirm", freelancer, paymentH.Confirm)
	api.Post("/payment-requests", freelancer, paymentH.CreateRequest)
	api.Post("/payment-requests/:id/approve", client, paymentH.ApproveRequest)
	api.Post("/payment-requests/:id/reject", client, paymentH.RejectRequest)
	api.Post("/reviews", reviewH.Create)

	return app, db
}

func token(t *testing.T, u *models.User) string {
	t.Helper()
	tok, err := utils.SignJWT(testSecret, u.ID.String(), string(u.Role), 60)
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

func doJSON(t *testing.T, app *fiber.App, method, path, tok string, body interface{}) *http.Response {
	t.Helper()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

type fixture struct {
	client     *models.User
	freelancer *models.User
	project    *models.Project
	proposal   *models.Proposal
}

func seedOpenProject(t *testing.T, db *gorm.DB) fixture {
	t.Helper()

	client := testutil.CreateUser(t, db, "client", models.RoleClient)
	freelancer := testutil.CreateUser(t, db, "freelancer", models.RoleFreelancer)

	project := models.Project{
		ClientID: client.ID,
		Title:    "Landing page",
		Status:   models.EngagementStatusOpen,
	}
	if err := db.Create(&project).Error; err != nil {
		t.Fatal(err)
	}
	proposal := models.Proposal{
		ProjectID:    project.ID,
		FreelancerID: freelancer.ID,
		BidAmount:    2000,
		Status:       models.OfferStatusPending,
	}
	if err := db.Create(&proposal).Error; err != nil {
		t.Fatal(err)
	}
	return fixture{client: client, freelancer: freelancer, project: &project, proposal: &proposal}
}

// signedWorkspace drives the flow up to an active contract with a workspace.
func signedWorkspace(t *testing.T, app *fiber.App, db *gorm.DB, fx fixture) (*models.Contract, *models.Workspace) {
	t.Helper()

	resp := doJSON(t, app, "POST", "/api/proposals/"+fx.proposal.ID.String()+"/accept", token(t, fx.client), nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("accept status = %d", resp.StatusCode)
	}

	var contract models.Contract
	if err := db.First(&contract, "proposal_id = ?", fx.proposal.ID).Error; err != nil {
		t.Fatal(err)
	}

	for _, u := range []*models.User{fx.client, fx.freelancer} {
		resp = doJSON(t, app, "POST", "/api/contracts/"+contract.ID.String()+"/sign", token(t, u), nil)
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("sign by %s status = %d", u.Name, resp.StatusCode)
		}
	}

	var ws models.Workspace
	if err := db.First(&ws, "contract_id = ?", contract.ID).Error; err != nil {
		t.Fatalf("workspace not created after both signatures: %v", err)
	}
	if err := db.First(&contract, "id = ?", contract.ID).Error; err != nil {
		t.Fatal(err)
	}
	return &contract, &ws
}

func TestSignFlowCreatesWorkspace(t *testing.T) {
	app, db := setupApp(t)
	fx := seedOpenProject(t, db)

	contract, _ := signedWorkspace(t, app, db, fx)
	if contract.Status != models.ContractStatusActive {
		t.Errorf("contract status = %s, want active", contract.Status)
	}

	// Repeated signing is rejected.
	resp := doJSON(t, app, "POST", "/api/contracts/"+contract.ID.String()+"/sign", token(t, fx.client), nil)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("double sign status = %d, want 400", resp.StatusCode)
	}

	// Outsiders are kept out.
	outsider := testutil.CreateUser(t, db, "outsider", models.RoleClient)
	resp = doJSON(t, app, "POST", "/api/contracts/"+contract.ID.String()+"/sign", token(t, outsider), nil)
	if resp.StatusCode != fiber.StatusForbidden {
		t.Errorf("outsider sign status = %d, want 403", resp.StatusCode)
	}
}

func TestMarkCompleteCascade(t *testing.T) {
	app, db := setupApp(t)
	fx := seedOpenProject(t, db)
	contract, ws := signedWorkspace(t, app, db, fx)

	path := "/api/workspaces/" + ws.ID.String() + "/mark_complete"

	resp := doJSON(t, app, "POST", path, token(t, fx.client), nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("client mark status = %d", resp.StatusCode)
	}

	// One-sided completion does not close anything.
	if err := db.First(contract, "id = ?", contract.ID).Error; err != nil {
		t.Fatal(err)
	}
	if contract.Status != models.ContractStatusActive {
		t.Errorf("contract status after one mark = %s, want active", contract.Status)
	}

	// Marking twice from the same side is rejected.
	resp = doJSON(t, app, "POST", path, token(t, fx.client), nil)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("repeat mark status = %d, want 400", resp.StatusCode)
	}

	resp = doJSON(t, app, "POST", path, token(t, fx.freelancer), nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("freelancer mark status = %d", resp.StatusCode)
	}

	if err := db.First(ws, "id = ?", ws.ID).Error; err != nil {
		t.Fatal(err)
	}
	if ws.CompletedAt == nil {
		t.Error("workspace completed_at not stamped")
	}
	if err := db.First(contract, "id = ?", contract.ID).Error; err != nil {
		t.Fatal(err)
	}
	if contract.Status != models.ContractStatusCompleted {
		t.Errorf("contract status = %s, want completed", contract.Status)
	}

	var project models.Project
	if err := db.First(&project, "id = ?", fx.project.ID).Error; err != nil {
		t.Fatal(err)
	}
	if project.Status != models.EngagementStatusCompleted {
		t.Errorf("project status = %s, want completed", project.Status)
	}
}

func TestPaymentConfirmOneWay(t *testing.T) {
	app, db := setupApp(t)
	fx := seedOpenProject(t, db)
	_, ws := signedWorkspace(t, app, db, fx)

	resp := doJSON(t, app, "POST", "/api/payments", token(t, fx.client), fiber.Map{
		"workspace_id": ws.ID.String(),
		"amount":       500,
	})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("create payment status = %d", resp.StatusCode)
	}

	var payment models.PaymentTransaction
	if err := db.First(&payment, "workspace_id = ?", ws.ID).Error; err != nil {
		t.Fatal(err)
	}
	if payment.Status != models.PaymentStatusPending {
		t.Errorf("new payment status = %s, want pending", payment.Status)
	}

	confirm := "/api/payments/" + payment.ID.String() + "/confirm"

	resp = doJSON(t, app, "POST", confirm, token(t, fx.freelancer), nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("confirm status = %d", resp.StatusCode)
	}
	if err := db.First(&payment, "id = ?", payment.ID).Error; err != nil {
		t.Fatal(err)
	}
	if payment.Status != models.PaymentStatusConfirmed || !payment.FreelancerConfirmed || payment.ConfirmedAt == nil {
		t.Error("payment not fully confirmed")
	}

	resp = doJSON(t, app, "POST", confirm, token(t, fx.freelancer), nil)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("second confirm status = %d, want 400", resp.StatusCode)
	}
}

func TestPaymentRequestResolution(t *testing.T) {
	app, db := setupApp(t)
	fx := seedOpenProject(t, db)
	_, ws := signedWorkspace(t, app, db, fx)

	resp := doJSON(t, app, "POST", "/api/payment-requests", token(t, fx.freelancer), fiber.Map{
		"workspace_id": ws.ID.String(),
		"amount":       750,
		"message":      "First milestone",
	})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("create request status = %d", resp.StatusCode)
	}

	var request models.PaymentRequest
	if err := db.First(&request, "workspace_id = ?", ws.ID).Error; err != nil {
		t.Fatal(err)
	}

	// The freelancer cannot resolve their own request.
	resp = doJSON(t, app, "POST", "/api/payment-requests/"+request.ID.String()+"/approve", token(t, fx.freelancer), nil)
	if resp.StatusCode != fiber.StatusForbidden {
		t.Errorf("freelancer approve status = %d, want 403", resp.StatusCode)
	}

	resp = doJSON(t, app, "POST", "/api/payment-requests/"+request.ID.String()+"/approve", token(t, fx.client), nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("approve status = %d", resp.StatusCode)
	}

	// Resolution is one-way.
	resp = doJSON(t, app, "POST", "/api/payment-requests/"+request.ID.String()+"/reject", token(t, fx.client), nil)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("reject after approve status = %d, want 400", resp.StatusCode)
	}

	if err := db.First(&request, "id = ?", request.ID).Error; err != nil {
		t.Fatal(err)
	}
	if request.Status != models.PaymentRequestApproved {
		t.Errorf("request status = %s, want approved", request.Status)
	}
}

func TestTaskRules(t *testing.T) {
	app, db := setupApp(t)
	fx := seedOpenProject(t, db)
	contract, ws := signedWorkspace(t, app, db, fx)

	resp := doJSON(t, app, "POST", "/api/tasks", token(t, fx.client), fiber.Map{
		"workspace_id": ws.ID.String(),
		"title":        "Design mockups",
	})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("create task status = %d", resp.StatusCode)
	}

	var task models.WorkspaceTask
	if err := db.First(&task, "workspace_id = ?", ws.ID).Error; err != nil {
		t.Fatal(err)
	}
	if task.AssignedToID != contract.FreelancerID {
		t.Error("task not assigned to the contract freelancer")
	}

	update := "/api/tasks/" + task.ID.String() + "/update_status"

	// Only the freelancer moves tasks.
	resp = doJSON(t, app, "POST", update, token(t, fx.client), fiber.Map{"status": "in_progress"})
	if resp.StatusCode != fiber.StatusForbidden {
		t.Errorf("client status update = %d, want 403", resp.StatusCode)
	}

	resp = doJSON(t, app, "POST", update, token(t, fx.freelancer), fiber.Map{"status": "blocked"})
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("unknown status update = %d, want 400", resp.StatusCode)
	}

	resp = doJSON(t, app, "POST", update, token(t, fx.freelancer), fiber.Map{"status": "completed"})
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("complete task status = %d", resp.StatusCode)
	}
	if err := db.First(&task, "id = ?", task.ID).Error; err != nil {
		t.Fatal(err)
	}
	if task.CompletedAt == nil {
		t.Error("task completed_at not stamped")
	}
}

func TestReviewRequiresCompletedContract(t *testing.T) {
	app, db := setupApp(t)
	fx := seedOpenProject(t, db)
	contract, ws := signedWorkspace(t, app, db, fx)

	body := fiber.Map{
		"contract_id": contract.ID.String(),
		"rating":      5,
		"comment":     "Great work",
	}

	resp := doJSON(t, app, "POST", "/api/reviews", token(t, fx.client), body)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("review on active contract status = %d, want 400", resp.StatusCode)
	}

	for _, u := range []*models.User{fx.client, fx.freelancer} {
		doJSON(t, app, "POST", "/api/workspaces/"+ws.ID.String()+"/mark_complete", token(t, u), nil)
	}

	resp = doJSON(t, app, "POST", "/api/reviews", token(t, fx.client), body)
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("review status = %d", resp.StatusCode)
	}

	var reviewee models.User
	if err := db.First(&reviewee, "id = ?", fx.freelancer.ID).Error; err != nil {
		t.Fatal(err)
	}
	if reviewee.RatingAvg != 5.0 {
		t.Errorf("rating_avg = %v, want 5.0", reviewee.RatingAvg)
	}

	// One review per contract and reviewer.
	resp = doJSON(t, app, "POST", "/api/reviews", token(t, fx.client), body)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("duplicate review status = %d, want 400", resp.StatusCode)
	}
}
