package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/Shubhamuu/hostel-solutions-sub001/internal/config"
	"github.com/Shubhamuu/hostel-solutions-sub001/internal/database"
	"github.com/Shubhamuu/hostel-solutions-sub001/internal/handler"
	"github.com/Shubhamuu/hostel-solutions-sub001/internal/middleware"
	"github.com/Shubhamuu/hostel-solutions-sub001/internal/payment"
	"github.com/Shubhamuu/hostel-solutions-sub001/internal/queue"
	"github.com/Shubhamuu/hostel-solutions-sub001/internal/repository"
	"github.com/Shubhamuu/hostel-solutions-sub001/internal/router"
	"github.com/Shubhamuu/hostel-solutions-sub001/internal/scheduler"
	"github.com/Shubhamuu/hostel-solutions-sub001/internal/service"
)

// gatewayTimeout bounds each outbound call to the payment provider.
const gatewayTimeout = 15 * time.Second

func main() {
	// .env is optional; real deployments set variables directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()

	users := repository.NewUserRepo(db)
	hostels := repository.NewHostelRepo(db)
	rooms := repository.NewRoomRepo(db)
	bookings := repository.NewBookingRepo(db)
	fees := repository.NewFeeRepo(db)
	disbursements := repository.NewDisbursementRepo(db)
	incomes := repository.NewIncomeRepo(db)

	gateway := payment.NewClient(cfg.GatewayBaseURL, cfg.GatewaySecretKey, gatewayTimeout)
	events := queue.NewPublisher()

	reservations := service.NewReservationService(db, users, rooms, bookings, fees)
	payments := service.NewPaymentService(db, fees, bookings, rooms, gateway, events, cfg.PaymentReturnURL)
	billing := service.NewBillingService(db, users, rooms, fees, cfg.BillingDueDay)
	payouts := service.NewDisbursementService(db, hostels, fees, disbursements, incomes, events,
		decimal.NewFromFloat(cfg.ServiceFeeRate))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go scheduler.NewBilling(billing, rdb).Start(ctx)
	go queue.StartNotifyConsumer(queue.FeeSettledQueue)
	go queue.StartNotifyConsumer(queue.DisbursementCompletedQueue)

	reservationH := handler.NewReservationHandler(reservations)
	paymentH := handler.NewPaymentHandler(payments)
	disbursementH := handler.NewDisbursementHandler(payouts)

	e := echo.New()
	limit := middleware.RateLimit(config.LoadRateLimitConfig(), rdb)
	router.RegisterRoutes(e)
	router.RegisterStudent(e, reservationH, paymentH, cfg.JWTSecret, limit)
	router.RegisterOwner(e, disbursementH, cfg.JWTSecret)
	router.RegisterAdmin(e, reservationH, paymentH, disbursementH, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
