package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"budgetbook/api/internal/config"
	"budgetbook/api/internal/middleware"
	"budgetbook/api/internal/repository"
	"budgetbook/api/internal/security"
	"budgetbook/api/internal/service"
	"budgetbook/api/internal/storage"
)

type HandlerSet struct {
	log             zerolog.Logger
	cfg             *config.AppConfig
	db              *pgxpool.Pool
	cache           *redis.Client
	codec           *security.TokenCodec
	sessions        *repository.SessionRepository
	authService     *service.AuthService
	userService     *service.UserService
	categoryService *service.CategoryService
	incomeService   *service.IncomeService
	expenseService  *service.ExpenseService
}

func NewHandlerSet(log zerolog.Logger, db *pgxpool.Pool, cache *redis.Client, store *storage.ObjectStore, cfg *config.AppConfig) HandlerSet {
	hasher := security.NewHasher(cfg.Security.PasswordSecret)
	codec := security.NewTokenCodec(cfg.Security, hasher)

	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	incomeRepo := repository.NewIncomeRepository(db)
	expenseRepo := repository.NewExpenseRepository(db)

	return HandlerSet{
		log:             log,
		cfg:             cfg,
		db:              db,
		cache:           cache,
		codec:           codec,
		sessions:        sessionRepo,
		authService:     service.NewAuthService(userRepo, sessionRepo, hasher, codec, cfg, log),
		userService:     service.NewUserService(userRepo),
		categoryService: service.NewCategoryService(categoryRepo, cache, log),
		incomeService:   service.NewIncomeService(incomeRepo, categoryRepo, log),
		expenseService:  service.NewExpenseService(expenseRepo, categoryRepo, store, log),
	}
}

// CategoryService exposes the category service for the scheduler's cache
// warm job.
func (h HandlerSet) CategoryService() *service.CategoryService {
	return h.categoryService
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	guard := middleware.Auth(h.codec, h.sessions)

	auth := router.Group("/auth")
	auth.POST("/register", h.RegisterUser)
	auth.POST("/login", h.Login)
	auth.POST("/refresh-token", h.RefreshToken)
	auth.POST("/logout", guard, h.Logout)

	users := router.Group("/users", guard)
	users.GET("/me", h.Me)
	users.PUT("/me", h.UpdateMe)

	categories := router.Group("/categories", guard)
	categories.POST("", h.CreateCategory)
	categories.GET("", h.ListCategories)
	categories.GET("/:id", h.GetCategory)
	categories.PUT("/:id", h.UpdateCategory)
	categories.DELETE("/:id", h.DeleteCategory)

	incomes := router.Group("/incomes", guard)
	incomes.POST("", h.CreateIncome)
	incomes.GET("", h.ListIncomes)
	incomes.GET("/:id", h.GetIncome)
	incomes.PUT("/:id", h.UpdateIncome)
	incomes.DELETE("/:id", h.DeleteIncome)

	expenses := router.Group("/expenses", guard)
	expenses.POST("", h.CreateExpense)
	expenses.GET("", h.ListExpenses)
	expenses.GET("/:id", h.GetExpense)
	expenses.PUT("/:id", h.UpdateExpense)
	expenses.DELETE("/:id", h.DeleteExpense)
	expenses.PUT("/:id/receipt", h.AttachReceipt)
	expenses.GET("/:id/receipt", h.GetReceiptURL)
}

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"data": data})
}

// fail maps service and repository errors onto the HTTP taxonomy: Forbidden
// for credential and ownership failures, Unauthorized for refresh-token
// failures, NotFound for missing entities, and a message-passthrough
// BadRequest for everything unexpected.
func (h HandlerSet) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusForbidden, gin.H{"error": "Invalid credentials"})
	case errors.Is(err, service.ErrUsernameTaken):
		c.JSON(http.StatusForbidden, gin.H{"error": "Username already exists"})
	case errors.Is(err, service.ErrNotAllowed):
		c.JSON(http.StatusForbidden, gin.H{"error": "Not allowed"})
	case errors.Is(err, service.ErrInvalidRefreshToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
	case errors.Is(err, repository.ErrCategoryNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "No Category Found"})
	case errors.Is(err, repository.ErrIncomeNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "No income record found"})
	case errors.Is(err, repository.ErrExpenseNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "No expense record found"})
	case errors.Is(err, repository.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "No user found"})
	case errors.Is(err, service.ErrReceiptNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "No receipt found"})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}
