package main

import (
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"path"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"farmstay/src/availability"
	"farmstay/src/boot"
	"farmstay/src/config"
	"farmstay/src/db"
	"farmstay/src/lib"
	"farmstay/src/middlewares"
	"farmstay/src/notifications"
	"farmstay/src/ratelimit"
	"farmstay/src/utils"

	"github.com/covalenthq/lumberjack"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	_ "github.com/joho/godotenv/autoload"
)

const (
	apiPrefix   string = "/api/v1"
	adminPrefix string = "/api/v1/admin"

	rateLimitWindow = time.Minute
	logRingSize     = 200
)

// logRing backs the admin log endpoint with the tail of the server log.
var logRing = utils.NewLogRing(logRingSize)

var isoDateValidatorFunc validator.Func = func(fl validator.FieldLevel) bool {
	date, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	_, err := time.Parse(config.DATE_PARSE_FORMAT, date)
	return err == nil
}

var clockTimeValidatorFunc validator.Func = func(fl validator.FieldLevel) bool {
	clock, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	_, err := time.Parse(config.TIME_PARSE_FORMAT, clock)
	return err == nil
}

func registerValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("isodate", isoDateValidatorFunc)
		v.RegisterValidation("clocktime", clockTimeValidatorFunc)
		// Field errors keyed by wire name, not Go field name.
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

func setupRouter() *gin.Engine {
	router := gin.Default()
	router.Use(middlewares.SecureHeaders)
	router.Use(middlewares.RequestID)
	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, "ok")
	})
	router.GET("/healthz", func(ctx *gin.Context) {
		sqlDB, err := db.GetDb().DB()
		if err == nil {
			err = sqlDB.Ping()
		}
		if err != nil {
			ctx.JSON(http.StatusServiceUnavailable, gin.H{"ok": false})
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router
}

func maintenanceModeMiddleware(g *gin.Engine) *gin.Engine {
	g.Use(func(ctx *gin.Context) {
		mm := os.Getenv("MAINTENANCE_MODE")
		atob, err := strconv.ParseBool(mm)
		if err == nil && atob {
			err := errors.New("server is under maintenance")
			log.Println(err.Error())
			ctx.AbortWithStatusJSON(http.StatusServiceUnavailable, err.Error())
			return
		}
	})
	return g
}

func publicRoutes(router *gin.Engine, engine *availability.Engine, limiter ratelimit.Limiter, orch *notifications.Orchestrator) {
	public := router.Group(apiPrefix)
	availabilityHandlers(public, engine)
	bookingHandlers(public, engine, limiter, orch)
}

func adminRoutes(router *gin.Engine, orch *notifications.Orchestrator) {
	adminAuthHandlers(router.Group(adminPrefix), orch)

	authorized := router.Group(adminPrefix)
	authorized.Use(middlewares.AdminAuthMiddleware)
	adminHandlers(authorized, orch, logRing)
}

// newLimiter prefers the shared Redis window when Redis is configured
// so the quota holds across replicas; otherwise an in-process window.
func newLimiter() ratelimit.Limiter {
	max := config.RateLimitMax()
	if rdb := lib.GetRedisClient(); rdb != nil {
		return ratelimit.NewRedisLimiter(rdb, max, rateLimitWindow)
	}
	return ratelimit.NewSlidingWindow(max, rateLimitWindow)
}

func initLogger() {
	cwd, _ := os.Getwd()
	serverLogs := path.Join(cwd, "logs", "server.log")
	apiLogs := path.Join(cwd, "logs", "api.log")
	gin.ForceConsoleColor()

	f, _ := os.Create(apiLogs)
	gin.DefaultWriter = io.MultiWriter(f, os.Stdout)
	log.SetOutput(io.MultiWriter(&lumberjack.Logger{
		Filename:   serverLogs,
		MaxSize:    500,
		MaxBackups: 3,
		MaxAge:     30,
		Compress:   true,
	}, logRing))
}

func main() {
	apiEnv := os.Getenv("API_ENV")
	if apiEnv == "local" {
		cwd, _ := os.Getwd()
		if err := godotenv.Load(path.Join(cwd, ".env")); err != nil {
			panic(err)
		}
	}
	initLogger()
	registerValidators()

	d := boot.InitDb()
	boot.SeedAdmin(d)
	boot.SeedUnits(d)
	boot.InitScheduler()

	engine := availability.New(d)
	limiter := newLimiter()
	orch := notifications.New(d)

	router := setupRouter()

	appHost := os.Getenv("APP_HOST")
	if apiEnv == "local" {
		router.Use(cors.Default())
	} else {
		cc := cors.DefaultConfig()
		cc.AllowMethods = append(cc.AllowMethods, "GET", "POST", "DELETE", "HEAD")
		cc.AllowHeaders = append(cc.AllowHeaders, "Origin", "X-Request-Id")
		cc.AllowOriginFunc = func(origin string) bool {
			match, _ := regexp.MatchString(appHost, origin)
			return match
		}
		cc.AllowCredentials = true
		cc.AllowAllOrigins = false
		router.Use(cors.New(cc))
	}

	router = maintenanceModeMiddleware(router)

	publicRoutes(router, engine, limiter, orch)
	adminRoutes(router, orch)

	if err := router.Run(":9090"); err != nil {
		log.Fatalf("Failed to start server: %s", err)
	}
}
