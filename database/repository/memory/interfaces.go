package memoryRepo

import (
	bookingRepo "classbook/database/repository/booking"
	couponRepo "classbook/database/repository/coupon"
	creditRepo "classbook/database/repository/credit"
	scheduleRepo "classbook/database/repository/schedule"
	transactionRepo "classbook/database/repository/transaction"
	waitlistRepo "classbook/database/repository/waitlist"
)

var (
	_ scheduleRepo.ScheduleRepository       = (*ScheduleRepo)(nil)
	_ bookingRepo.BookingRepository         = (*BookingRepo)(nil)
	_ creditRepo.CreditRepository           = (*CreditRepo)(nil)
	_ couponRepo.CouponRepository           = (*CouponRepo)(nil)
	_ waitlistRepo.WaitlistRepository       = (*WaitlistRepo)(nil)
	_ transactionRepo.TransactionRepository = (*TransactionRepo)(nil)
)
