package payu

// The request and response shapes below mirror the PayU REST API field names
// and optionality. Amounts are strings expressed in the lowest currency unit,
// as the API transmits them. No behaviour lives here; requests are validated
// at the API boundary before they are sent.

// OrderRequest describes a new order submitted to PayU.
type OrderRequest struct {
	ExtOrderID            string      `json:"extOrderId,omitempty"`
	NotifyURL             string      `json:"notifyUrl,omitempty" validate:"omitempty,url"`
	ContinueURL           string      `json:"continueUrl,omitempty" validate:"omitempty,url"`
	CustomerIP            string      `json:"customerIp" validate:"required,ip"`
	MerchantPosID         string      `json:"merchantPosId" validate:"required"`
	ValidityTime          string      `json:"validityTime,omitempty"`
	Description           string      `json:"description" validate:"required"`
	AdditionalDescription string      `json:"additionalDescription,omitempty"`
	CurrencyCode          string      `json:"currencyCode" validate:"required,len=3"`
	TotalAmount           string      `json:"totalAmount" validate:"required,number"`
	Buyer                 *Buyer      `json:"buyer,omitempty"`
	Products              []Product   `json:"products" validate:"required,min=1,dive"`
	PayMethods            *PayMethods `json:"payMethods,omitempty"`
}

// Product is a single order line.
type Product struct {
	Name        string `json:"name" validate:"required"`
	UnitPrice   string `json:"unitPrice" validate:"required,number"`
	Quantity    string `json:"quantity" validate:"required,number"`
	Virtual     *bool  `json:"virtual,omitempty"`
	ListingDate string `json:"listingDate,omitempty"`
}

// Buyer identifies the paying customer.
type Buyer struct {
	ExtCustomerID string    `json:"extCustomerId,omitempty"`
	Email         string    `json:"email,omitempty" validate:"omitempty,email"`
	Phone         string    `json:"phone,omitempty"`
	FirstName     string    `json:"firstName,omitempty"`
	LastName      string    `json:"lastName,omitempty"`
	Language      string    `json:"language,omitempty"`
	Delivery      *Delivery `json:"delivery,omitempty"`
}

// Delivery is the buyer's shipping address.
type Delivery struct {
	Street         string `json:"street,omitempty"`
	PostalBox      string `json:"postalBox,omitempty"`
	PostalCode     string `json:"postalCode,omitempty"`
	City           string `json:"city,omitempty"`
	State          string `json:"state,omitempty"`
	CountryCode    string `json:"countryCode,omitempty"`
	Name           string `json:"name,omitempty"`
	RecipientName  string `json:"recipientName,omitempty"`
	RecipientEmail string `json:"recipientEmail,omitempty"`
	RecipientPhone string `json:"recipientPhone,omitempty"`
}

// PayMethods restricts the payment instruments offered for an order.
type PayMethods struct {
	PayMethod *PayMethod `json:"payMethod,omitempty"`
}

// PayMethod selects a concrete payment instrument.
type PayMethod struct {
	Type  string `json:"type,omitempty"`
	Value string `json:"value,omitempty"`
}

// Status is the outcome object PayU attaches to every response.
type Status struct {
	StatusCode  string `json:"statusCode"`
	Severity    string `json:"severity,omitempty"`
	Code        string `json:"code,omitempty"`
	CodeLiteral string `json:"codeLiteral,omitempty"`
	StatusDesc  string `json:"statusDesc,omitempty"`
}

// OrderCreateResponse is the body answered for a created order, including the
// 302 case where the body accompanies the customer redirect.
type OrderCreateResponse struct {
	Status      Status `json:"status"`
	RedirectURI string `json:"redirectUri,omitempty"`
	OrderID     string `json:"orderId,omitempty"`
	ExtOrderID  string `json:"extOrderId,omitempty"`
}

// Order is the provider-side view of an order returned by retrieval.
type Order struct {
	OrderID         string    `json:"orderId,omitempty"`
	ExtOrderID      string    `json:"extOrderId,omitempty"`
	OrderCreateDate string    `json:"orderCreateDate,omitempty"`
	NotifyURL       string    `json:"notifyUrl,omitempty"`
	CustomerIP      string    `json:"customerIp,omitempty"`
	MerchantPosID   string    `json:"merchantPosId,omitempty"`
	Description     string    `json:"description,omitempty"`
	CurrencyCode    string    `json:"currencyCode,omitempty"`
	TotalAmount     string    `json:"totalAmount,omitempty"`
	Status          string    `json:"status,omitempty"`
	Buyer           *Buyer    `json:"buyer,omitempty"`
	Products        []Product `json:"products,omitempty"`
}

// Property is a name/value pair attached to retrievals and notifications.
type Property struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// OrderRetrieveResponse is the body answered for an order retrieval.
type OrderRetrieveResponse struct {
	Orders     []Order    `json:"orders"`
	Status     Status     `json:"status"`
	Properties []Property `json:"properties,omitempty"`
}

// Transaction describes a payment attempt recorded against an order.
type Transaction struct {
	PayMethod   *PayMethod `json:"payMethod,omitempty"`
	PaymentFlow string     `json:"paymentFlow,omitempty"`
}

// TransactionsResponse is the body answered for a transaction listing.
type TransactionsResponse struct {
	Transactions []Transaction `json:"transactions"`
	Status       Status        `json:"status"`
}

// OrderStatusUpdateRequest captures (completes) an authorized order.
type OrderStatusUpdateRequest struct {
	OrderID     string `json:"orderId"`
	OrderStatus string `json:"orderStatus"`
}

// OrderStatusUpdateResponse is the body answered for a capture.
type OrderStatusUpdateResponse struct {
	Status Status `json:"status"`
}

// OrderCancelResponse is the body answered for a cancellation.
type OrderCancelResponse struct {
	Status     Status `json:"status"`
	OrderID    string `json:"orderId,omitempty"`
	ExtOrderID string `json:"extOrderId,omitempty"`
}

// RefundRequest asks PayU to refund an order. An absent amount refunds the
// full remaining order value.
type RefundRequest struct {
	Refund Refund `json:"refund"`
}

// Refund is the refund description inside a RefundRequest.
type Refund struct {
	Description string `json:"description" validate:"required"`
	Amount      string `json:"amount,omitempty" validate:"omitempty,number"`
	ExtRefundID string `json:"extRefundId,omitempty"`
}

// RefundDetails is the provider-side view of a created refund.
type RefundDetails struct {
	RefundID       string `json:"refundId,omitempty"`
	ExtRefundID    string `json:"extRefundId,omitempty"`
	Amount         string `json:"amount,omitempty"`
	CurrencyCode   string `json:"currencyCode,omitempty"`
	Description    string `json:"description,omitempty"`
	CreationDate   string `json:"creationDateTime,omitempty"`
	Status         string `json:"status,omitempty"`
	StatusDateTime string `json:"statusDateTime,omitempty"`
}

// RefundResponse is the body answered for a refund creation.
type RefundResponse struct {
	OrderID string        `json:"orderId,omitempty"`
	Refund  RefundDetails `json:"refund"`
	Status  Status        `json:"status"`
}

// Notification is the asynchronous callback PayU posts to the merchant's
// notify URL. Order and Refund are mutually exclusive depending on the
// notification kind.
type Notification struct {
	Order                *Order         `json:"order,omitempty"`
	Refund               *RefundDetails `json:"refund,omitempty"`
	OrderID              string         `json:"orderId,omitempty"`
	ExtOrderID           string         `json:"extOrderId,omitempty"`
	LocalReceiptDateTime string         `json:"localReceiptDateTime,omitempty"`
	Properties           []Property     `json:"properties,omitempty"`
}
