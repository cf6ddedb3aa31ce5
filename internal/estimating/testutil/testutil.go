package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/apopovich85/Est/internal/estimating/entity"
	"github.com/apopovich85/Est/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const JWTSecret = "est-jwt-secret-key-2025"

// TestEnv holds test environment resources.
type TestEnv struct {
	DB     *gorm.DB
	Router *gin.Engine
	T      *testing.T
}

// SetupTestDB opens an isolated in-memory database and migrates every table.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=private"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	err = db.AutoMigrate(
		&entity.User{},
		&entity.PartCategory{},
		&entity.Part{},
		&entity.PartPriceHistory{},
		&entity.AssemblyCategory{},
		&entity.StandardAssembly{},
		&entity.StandardAssemblyComponent{},
		&entity.AssemblyVersion{},
		&entity.Project{},
		&entity.Estimate{},
		&entity.EstimateComponent{},
		&entity.EstimateRevision{},
		&entity.Assembly{},
		&entity.AssemblyPart{},
		&entity.Motor{},
		&entity.MotorRevision{},
		&entity.VFDType{},
		&entity.NECAmpRow{},
		&entity.LaborRate{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate test tables: %v", err)
	}

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
	})

	return db
}

// SetupRouter creates a gin test router.
func SetupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())
	return r
}

// AuthGroup creates an API group guarded by the JWT middleware.
func AuthGroup(r *gin.Engine, path string) *gin.RouterGroup {
	return r.Group(path, middleware.JWTAuth(JWTSecret))
}

// GenerateTestToken creates a valid signed token.
func GenerateTestToken(userID, name, email string, roles, permissions []string) string {
	if roles == nil {
		roles = []string{}
	}
	if permissions == nil {
		permissions = []string{}
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   userID,
		"uid":   userID,
		"name":  name,
		"email": email,
		"roles": roles,
		"perms": permissions,
		"iss":   "est",
		"iat":   now.Unix(),
		"exp":   now.Add(24 * time.Hour).Unix(),
		"jti":   fmt.Sprintf("test-jti-%d", now.UnixNano()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, _ := token.SignedString([]byte(JWTSecret))
	return tokenString
}

// DefaultTestToken returns a token for an admin test user.
func DefaultTestToken() string {
	return GenerateTestToken(
		"test-user-001",
		"Test Admin",
		"admin@test.com",
		[]string{"admin"},
		[]string{"*"},
	)
}

// DoRequest executes an HTTP request against the test router.
func DoRequest(r *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ParseResponse decodes the response envelope into a map.
func ParseResponse(w *httptest.ResponseRecorder) map[string]interface{} {
	var result map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)
	return result
}

// SeedPart creates a part with a current price.
func SeedPart(t *testing.T, db *gorm.DB, partNumber string, price float64) *entity.Part {
	t.Helper()
	part := &entity.Part{
		ID:           uuid.New().String()[:32],
		PartNumber:   partNumber,
		Manufacturer: "TestMfg",
		Description:  "test part " + partNumber,
	}
	if err := db.Create(part).Error; err != nil {
		t.Fatalf("Failed to seed part: %v", err)
	}
	history := &entity.PartPriceHistory{
		ID:        uuid.New().String()[:32],
		PartID:    part.ID,
		NewPrice:  price,
		ChangedAt: time.Now(),
		IsCurrent: true,
		Source:    "manual",
	}
	if err := db.Create(history).Error; err != nil {
		t.Fatalf("Failed to seed price history: %v", err)
	}
	return part
}

// SeedAssemblyCategory creates an assembly category.
func SeedAssemblyCategory(t *testing.T, db *gorm.DB, code, name string) *entity.AssemblyCategory {
	t.Helper()
	cat := &entity.AssemblyCategory{
		ID:       uuid.New().String()[:32],
		Code:     code,
		Name:     name,
		IsActive: true,
	}
	if err := db.Create(cat).Error; err != nil {
		t.Fatalf("Failed to seed assembly category: %v", err)
	}
	return cat
}

// SeedProject creates a project.
func SeedProject(t *testing.T, db *gorm.DB, name string) *entity.Project {
	t.Helper()
	project := &entity.Project{
		ID:          uuid.New().String()[:32],
		ProjectName: name,
		ClientName:  "Test Client",
		Status:      "draft",
		IsActive:    true,
	}
	if err := db.Create(project).Error; err != nil {
		t.Fatalf("Failed to seed project: %v", err)
	}
	return project
}

// SeedEstimate creates an estimate under a project.
func SeedEstimate(t *testing.T, db *gorm.DB, projectID, number string) *entity.Estimate {
	t.Helper()
	estimate := &entity.Estimate{
		ID:                  uuid.New().String()[:32],
		ProjectID:           projectID,
		EstimateNumber:      number,
		EstimateName:        "estimate " + number,
		EngineeringRate:     145,
		PanelShopRate:       125,
		MachineAssemblyRate: 125,
	}
	if err := db.Create(estimate).Error; err != nil {
		t.Fatalf("Failed to seed estimate: %v", err)
	}
	return estimate
}
