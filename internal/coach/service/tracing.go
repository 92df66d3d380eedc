package service

import "go.opentelemetry.io/otel"

var tracer = otel.Tracer("github.com/aussiebroadwan/coach/internal/coach/service")
