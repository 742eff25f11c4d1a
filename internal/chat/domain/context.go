package domain

import "context"

type contextKey string

const restaurantIDKey contextKey = "restaurantID"

// WithRestaurantID guarda no contexto o restaurante vindo do widget token.
func WithRestaurantID(ctx context.Context, restaurantID string) context.Context {
	return context.WithValue(ctx, restaurantIDKey, restaurantID)
}

// RestaurantIDFromContext devolve o restaurante do widget token ("" se não há token).
func RestaurantIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(restaurantIDKey).(string)
	return v
}
