package grpc

import (
	"errors"

	"github.com/vogiaan1904/dealview-tracker/internal/service"
	pkgErrors "github.com/vogiaan1904/dealview-tracker/pkg/errors"
	"google.golang.org/grpc/codes"
)

var (
	errDealIDRequired = pkgErrors.NewGRPCError("DVT001", "Deal id is required", codes.InvalidArgument)
	errStoreFailure   = pkgErrors.NewGRPCError("DVT002", "View could not be recorded", codes.Unavailable)
)

func (s *grpcService) mapGRPCError(err error) error {
	switch {
	case errors.Is(err, service.ErrDealIDRequired):
		return errDealIDRequired
	default:
		return errStoreFailure
	}
}
