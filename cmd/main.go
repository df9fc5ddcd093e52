package main

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"familytree_go/internal/handler"
	"familytree_go/internal/middleware"
	"familytree_go/internal/repository"
	"familytree_go/internal/service"
)

func main() {
	// 加载环境变量
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logrus.Fatal("JWT_SECRET is required")
	}

	// 初始化数据库连接
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
	)

	db, err := repository.InitDB(dsn)
	if err != nil {
		logrus.Fatalf("Failed to initialize database: %v", err)
	}

	// 初始化缓存服务
	var cache *service.CacheService
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cache = service.NewCacheService(addr, os.Getenv("REDIS_PASSWORD"), 0)
		defer cache.Close()
	}

	// 初始化存储与服务
	personRepo := repository.NewPersonRepository(db)
	tenantRepo := repository.NewTenantRepository(db)

	strictConnectivity := os.Getenv("STRICT_CONNECTIVITY") == "true"
	personService := service.NewPersonService(personRepo, cache, strictConnectivity)
	authService := service.NewAuthService(tenantRepo, jwtSecret)

	// 设置gin模式
	gin.SetMode(gin.ReleaseMode)

	// 创建gin引擎并注册路由
	r := gin.Default()

	api := r.Group("/api")
	handler.NewTenantHandler(authService).RegisterRoutes(api)

	authorized := api.Group("/", middleware.AuthMiddleware(jwtSecret))
	handler.NewPersonHandler(personService).RegisterRoutes(authorized)

	// 启动服务器
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logrus.Infof("Server is running on port %s", port)
	if err := r.Run(":" + port); err != nil {
		logrus.Fatalf("Failed to start server: %v", err)
	}
}
