package main

import (
	"pricecore/internal/app"

	"github.com/sirupsen/logrus"
)

func main() {
	if err := app.Run(); err != nil {
		logrus.Fatalf("Application exited with error: %v", err)
	}
}
