package api

import (
	"log"

	"github.com/gofiber/fiber/v2"
)

// maxBodySize sits above the 20MB content-upload cap so the handlers'
// size checks are the ones a client actually hits.
const maxBodySize = 25 * 1024 * 1024

type APIServer struct {
	app           *fiber.App
	listenAddress string
}

func NewAPIServer(listenAddress string) *APIServer {
	return &APIServer{
		app:           fiber.New(fiber.Config{BodyLimit: maxBodySize}),
		listenAddress: listenAddress,
	}
}

func (s *APIServer) GetEngine() *fiber.App {
	return s.app
}

func (s *APIServer) Run() error {
	log.Println("Starting API Server")
	log.Printf("Listening on %s", s.listenAddress)

	return s.app.Listen(s.listenAddress)
}
