package bulkload

import (
	"errors"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/pkg/bulkload"
	"github.com/Ramsey-B/clover/pkg/models"
)

var validate = validator.New()

// Register registers bulk load routes
func Register(g *echo.Group) {
	g.POST("/leads", BulkLeads)
	g.POST("/cases", BulkCases)
}

// BulkLeads inserts a batch of leads and immediately deletes them
func BulkLeads(c echo.Context) error {
	ctx := c.Request().Context()

	var req models.BulkLeadsRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, loader, err := ectoinject.GetContext[*bulkload.Loader](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	if err := loader.InsertAndDeleteLeads(ctx, req.LastNames, req.Company); err != nil {
		var limitErr *bulkload.RowLimitError
		if errors.As(err, &limitErr) {
			return httperror.NewHTTPError(http.StatusUnprocessableEntity, limitErr.Error())
		}
		return err
	}

	return c.JSON(http.StatusOK, models.BulkRoundTripResponse{
		Inserted: len(req.LastNames),
		Deleted:  len(req.LastNames),
	})
}

// BulkCases inserts a batch of cases and immediately deletes them
func BulkCases(c echo.Context) error {
	ctx := c.Request().Context()

	var req models.BulkCasesRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, loader, err := ectoinject.GetContext[*bulkload.Loader](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	if err := loader.InsertAndDeleteCases(ctx, req.Subjects); err != nil {
		var limitErr *bulkload.RowLimitError
		if errors.As(err, &limitErr) {
			return httperror.NewHTTPError(http.StatusUnprocessableEntity, limitErr.Error())
		}
		return err
	}

	return c.JSON(http.StatusOK, models.BulkRoundTripResponse{
		Inserted: len(req.Subjects),
		Deleted:  len(req.Subjects),
	})
}
