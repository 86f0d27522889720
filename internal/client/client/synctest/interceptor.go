package synctest

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/statsync/internal/auth"
	pb "github.com/dmitrijs2005/statsync/internal/proto"
)

type ctxKey string

const userIDKey ctxKey = "userID"

func userFromContext(ctx context.Context) (int, bool) {
	id, ok := ctx.Value(userIDKey).(int)
	return id, ok
}

// checkUser rejects a pull for a user other than the token owner.
func checkUser(ctx context.Context, user int) error {
	if id, ok := userFromContext(ctx); ok && id != user {
		return status.Error(codes.PermissionDenied, "user mismatch")
	}
	return nil
}

func (s *Server) accessTokenInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	if len(s.jwtSecret) == 0 || info.FullMethod == pb.SyncService_Ping_FullMethodName {
		return handler(ctx, req)
	}

	var accessToken string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(auth.AccessTokenHeaderName); len(values) > 0 {
			accessToken = values[0]
		}
	}
	if accessToken == "" {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	userID, err := auth.UserIDFromToken(accessToken, s.jwtSecret)
	if errors.Is(err, auth.ErrTokenExpired) {
		return nil, status.Error(codes.Unauthenticated, auth.ErrTokenExpired.Error())
	}
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "invalid token")
	}

	return handler(context.WithValue(ctx, userIDKey, userID), req)
}
