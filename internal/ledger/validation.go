package ledger

func applyCreateDefaults(input CreateOrderInput) CreateOrderInput {
	if input.PaymentMode == "" {
		input.PaymentMode = PaymentModeCash
	}
	if input.Priority == "" {
		input.Priority = PriorityMedium
	}
	return input
}

func validateCreateOrder(input CreateOrderInput) error {
	if len(input.Garments) == 0 {
		return ErrEmptyGarments
	}
	for _, g := range input.Garments {
		if g.Quantity <= 0 {
			return ErrInvalidQuantity
		}
	}
	if input.TotalAmount <= 0 {
		return ErrInvalidTotal
	}
	if input.DeliveryDate.IsZero() {
		return ErrMissingDelivery
	}
	if !input.PaymentMode.Valid() {
		return ErrInvalidPaymentMode
	}
	if !input.Priority.Valid() {
		return ErrInvalidPriority
	}
	return nil
}
