package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/shop/backend/internal/application/identity"
	"github.com/shop/backend/internal/interfaces/http/dto"
)

// ContactHandler manages the delivery contacts of the caller
type ContactHandler struct {
	BaseHandler
	accountService *identity.AccountService
}

// NewContactHandler creates a new contact handler
func NewContactHandler(accountService *identity.AccountService) *ContactHandler {
	return &ContactHandler{accountService: accountService}
}

// List godoc
// @Summary      List contacts
// @Tags         contact
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.Response{data=[]identity.ContactResponse}
// @Router       /user/contact [get]
func (h *ContactHandler) List(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	contacts, err := h.accountService.ListContacts(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessList(c, contacts, len(contacts))
}

// Create godoc
// @Summary      Add a contact
// @Tags         contact
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body identity.CreateContactRequest true "Contact"
// @Success      201 {object} dto.Response{data=identity.ContactResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /user/contact [post]
func (h *ContactHandler) Create(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req identity.CreateContactRequest
	if !h.bindJSON(c, &req) {
		return
	}

	contact, err := h.accountService.CreateContact(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, contact)
}

// Update godoc
// @Summary      Update a contact
// @Tags         contact
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body identity.UpdateContactRequest true "Contact id and changed fields"
// @Success      200 {object} dto.Response{data=identity.ContactResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /user/contact [put]
func (h *ContactHandler) Update(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req identity.UpdateContactRequest
	if !h.bindJSON(c, &req) {
		return
	}

	contact, err := h.accountService.UpdateContact(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, contact)
}

// Delete godoc
// @Summary      Delete contacts
// @Description  items is a comma separated list of contact ids
// @Tags         contact
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body identity.DeleteContactsRequest true "Contact ids"
// @Success      200 {object} dto.Response{data=dto.CountResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /user/contact [delete]
func (h *ContactHandler) Delete(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req identity.DeleteContactsRequest
	if !h.bind(c, &req) {
		return
	}

	deleted, err := h.accountService.DeleteContacts(c.Request.Context(), userID, req.Items)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.CountResponse{Count: deleted})
}
