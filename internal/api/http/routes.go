package httpapi

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/i474232898/umbrella-agent/internal/agent"
	"github.com/i474232898/umbrella-agent/internal/reminder"
	"github.com/i474232898/umbrella-agent/internal/store"
	"github.com/i474232898/umbrella-agent/internal/subscription"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const serviceName = "umbrella-agent"

// Subscriptions is the reminder service as seen by the HTTP layer.
type Subscriptions interface {
	Register(ctx context.Context, req subscription.Request) (reminder.Registration, error)
	Remove(ctx context.Context, email string) error
	List(ctx context.Context) ([]reminder.View, error)
	Get(ctx context.Context, email string) (reminder.View, error)
	CheckNow(ctx context.Context, email string) (agent.CheckOutcome, error)
	Count() int
}

// ErrorHandler renders every error as {"error": true, "message": ...}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, svc Subscriptions) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service":     serviceName,
			"description": "Daily umbrella reminders by email, based on current weather",
			"endpoints": fiber.Map{
				"GET /health":                             "service health",
				"GET /metrics":                            "Prometheus metrics",
				"POST /api/v1/subscriptions":              "register an email for daily checks (runs one check immediately)",
				"GET /api/v1/subscriptions":               "list subscriptions",
				"GET /api/v1/subscriptions/:email":        "show one subscription",
				"DELETE /api/v1/subscriptions/:email":     "remove a subscription",
				"POST /api/v1/subscriptions/:email/check": "run a check now",
			},
		})
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":        "ok",
			"service":       serviceName,
			"timestamp":     time.Now().UTC().Format(time.RFC3339),
			"subscriptions": svc.Count(),
		})
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	v1 := app.Group("/api/v1")

	// Registration waits for the first check, so it can take as long as one
	// weather fetch plus one email delivery.
	v1.Post("/subscriptions", func(c *fiber.Ctx) error {
		var req subscription.Request
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		reg, err := svc.Register(c.UserContext(), req)
		if err != nil {
			var ve *subscription.ValidationError
			if errors.As(err, &ve) {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error":   true,
					"message": ve.Error(),
					"fields":  ve.Fields,
				})
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to register subscription")
		}

		return c.Status(fiber.StatusCreated).JSON(reg)
	})

	v1.Get("/subscriptions", func(c *fiber.Ctx) error {
		subs, err := svc.List(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to list subscriptions")
		}
		return c.JSON(fiber.Map{
			"count":         len(subs),
			"subscriptions": subs,
		})
	})

	v1.Get("/subscriptions/:email", func(c *fiber.Ctx) error {
		email, err := emailParam(c)
		if err != nil {
			return err
		}
		view, err := svc.Get(c.UserContext(), email)
		if err != nil {
			return lookupError(err)
		}
		return c.JSON(view)
	})

	v1.Delete("/subscriptions/:email", func(c *fiber.Ctx) error {
		email, err := emailParam(c)
		if err != nil {
			return err
		}
		if err := svc.Remove(c.UserContext(), email); err != nil {
			return lookupError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	v1.Post("/subscriptions/:email/check", func(c *fiber.Ctx) error {
		email, err := emailParam(c)
		if err != nil {
			return err
		}
		out, err := svc.CheckNow(c.UserContext(), email)
		if err != nil {
			return lookupError(err)
		}
		return c.JSON(out)
	})
}

func emailParam(c *fiber.Ctx) (string, error) {
	email, err := url.PathUnescape(c.Params("email"))
	if err != nil || email == "" {
		return "", fiber.NewError(fiber.StatusBadRequest, "invalid email in path")
	}
	return email, nil
}

func lookupError(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "subscription not found")
	}
	return fiber.NewError(fiber.StatusInternalServerError, "failed to load subscription")
}
