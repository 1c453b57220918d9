package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tobipay/bundlepay/internal/helpers"
	"github.com/tobipay/bundlepay/internal/models"
	"github.com/tobipay/bundlepay/internal/resultcode"
	"gorm.io/gorm"
)

// Gateway configuration endpoints: plain CRUD, no allocation logic.

func databaseFrom(c *gin.Context) (*gorm.DB, bool) {
	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, resultcode.Newf(resultcode.ErrorEtc, slog.LevelError,
			"Database connection not found."))
		return nil, false
	}
	return db.(*gorm.DB), true
}

type PGCodeRequest struct {
	Name string `json:"name" binding:"required"`
	Code string `json:"code" binding:"required"`
}

func CreatePGCode(c *gin.Context) {
	var req PGCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithParameterError(c, "Invalid input. Name and code are required.")
		return
	}

	db, ok := databaseFrom(c)
	if !ok {
		return
	}

	var existing models.PGCode
	if err := db.Where("code = ?", req.Code).First(&existing).Error; err == nil {
		helpers.RespondWithError(c, resultcode.New(resultcode.ErrorPGCodeAlreadyExists, slog.LevelWarn))
		return
	}

	pgCode := models.PGCode{Name: req.Name, Code: req.Code}
	if err := db.Create(&pgCode).Error; err != nil {
		helpers.RespondWithError(c, resultcode.Wrap(resultcode.ErrorDB, slog.LevelError,
			"Failed to create PG code.", err))
		return
	}

	helpers.Respond(c, http.StatusCreated, gin.H{"pg_code_id": pgCode.ID})
}

func ListPGCodes(c *gin.Context) {
	db, ok := databaseFrom(c)
	if !ok {
		return
	}

	var codes []models.PGCode
	if err := db.Find(&codes).Error; err != nil {
		helpers.RespondWithError(c, resultcode.Wrap(resultcode.ErrorDB, slog.LevelError,
			"Failed to list PG codes.", err))
		return
	}

	helpers.Respond(c, http.StatusOK, codes)
}

type PGRequest struct {
	Name     string    `json:"name" binding:"required"`
	PGCodeID uuid.UUID `json:"pg_code_id" binding:"required"`
}

func CreatePG(c *gin.Context) {
	var req PGRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithParameterError(c, "Invalid input. Name and PG code ID are required.")
		return
	}

	db, ok := databaseFrom(c)
	if !ok {
		return
	}

	var pgCode models.PGCode
	if err := db.First(&pgCode, "id = ?", req.PGCodeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			helpers.RespondWithError(c, resultcode.New(resultcode.ErrorPGCodeNotExists, slog.LevelWarn))
			return
		}
		helpers.RespondWithError(c, resultcode.Wrap(resultcode.ErrorDB, slog.LevelError,
			"Failed to look up PG code.", err))
		return
	}

	pg := models.PG{Name: req.Name, PGCodeID: pgCode.ID}
	if err := db.Create(&pg).Error; err != nil {
		helpers.RespondWithError(c, resultcode.Wrap(resultcode.ErrorDB, slog.LevelError,
			"Failed to create PG.", err))
		return
	}

	helpers.Respond(c, http.StatusCreated, gin.H{"pg_id": pg.ID})
}

func ListPGs(c *gin.Context) {
	db, ok := databaseFrom(c)
	if !ok {
		return
	}

	var pgs []models.PG
	if err := db.Preload("PGCode").Find(&pgs).Error; err != nil {
		helpers.RespondWithError(c, resultcode.Wrap(resultcode.ErrorDB, slog.LevelError,
			"Failed to list PGs.", err))
		return
	}

	helpers.Respond(c, http.StatusOK, pgs)
}

type LimitCondRequest struct {
	TransactionLimit *int64 `json:"transaction_limit"`
	DailyLimit       *int64 `json:"daily_limit"`
	MonthlyLimit     *int64 `json:"monthly_limit"`
}

// applyLimitCond folds the request into the condition, touching only the
// ceilings the request carries. Omitted fields keep their stored value.
func applyLimitCond(cond *models.PaymentLimitCond, req LimitCondRequest) {
	if req.TransactionLimit != nil {
		cond.TransactionLimit = req.TransactionLimit
	}
	if req.DailyLimit != nil {
		cond.DailyLimit = req.DailyLimit
	}
	if req.MonthlyLimit != nil {
		cond.MonthlyLimit = req.MonthlyLimit
	}
}

// UpsertLimitCond sets the ceilings for one gateway. Only the fields
// present in the request are written; the others keep their stored value.
func UpsertLimitCond(c *gin.Context) {
	pgID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithParameterError(c, "Invalid PG ID.")
		return
	}

	var req LimitCondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithParameterError(c, "Invalid input. Please check your fields.")
		return
	}
	if req.TransactionLimit == nil && req.DailyLimit == nil && req.MonthlyLimit == nil {
		helpers.RespondWithError(c, resultcode.New(resultcode.ErrorNothingToModify, slog.LevelInfo))
		return
	}

	db, ok := databaseFrom(c)
	if !ok {
		return
	}

	var pg models.PG
	if err := db.First(&pg, "id = ?", pgID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			helpers.RespondWithError(c, resultcode.New(resultcode.ErrorPGNotExists, slog.LevelWarn))
			return
		}
		helpers.RespondWithError(c, resultcode.Wrap(resultcode.ErrorDB, slog.LevelError,
			"Failed to look up PG.", err))
		return
	}

	var cond models.PaymentLimitCond
	err = db.Where("pg_id = ?", pg.ID).First(&cond).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		cond = models.PaymentLimitCond{PGID: pg.ID}
	case err != nil:
		helpers.RespondWithError(c, resultcode.Wrap(resultcode.ErrorDB, slog.LevelError,
			"Failed to look up limit condition.", err))
		return
	}

	applyLimitCond(&cond, req)

	if err := db.Save(&cond).Error; err != nil {
		helpers.RespondWithError(c, resultcode.Wrap(resultcode.ErrorDB, slog.LevelError,
			"Failed to save limit condition.", err))
		return
	}

	helpers.Respond(c, http.StatusOK, gin.H{"limit_cond_id": cond.ID})
}

func GetLimitCond(c *gin.Context) {
	pgID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithParameterError(c, "Invalid PG ID.")
		return
	}

	db, ok := databaseFrom(c)
	if !ok {
		return
	}

	var cond models.PaymentLimitCond
	if err := db.Where("pg_id = ?", pgID).First(&cond).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			helpers.Respond(c, http.StatusOK, gin.H{"configured": false})
			return
		}
		helpers.RespondWithError(c, resultcode.Wrap(resultcode.ErrorDB, slog.LevelError,
			"Failed to look up limit condition.", err))
		return
	}

	helpers.Respond(c, http.StatusOK, cond)
}
