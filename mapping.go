package main

import "time"

// toUserDTO never carries the password out.
func toUserDTO(u User) UserDTO {
	return UserDTO{
		Id:       u.Id,
		Username: u.Username,
		Email:    u.Email,
	}
}

func toUserEntity(dto UserDTO) User {
	return User{
		Id:       dto.Id,
		Username: dto.Username,
		Email:    dto.Email,
		Password: dto.Password,
	}
}

func toTransactionDTO(t Transaction) TransactionDTO {
	return TransactionDTO{
		Id:          t.Id,
		Type:        t.Type,
		Amount:      t.Amount,
		Description: t.Description,
		Date:        &DateTime{Time: t.Date},
		Category:    t.Category,
		UserId:      t.UserId,
	}
}

// toTransactionEntity leaves Date zero when the DTO omits it.
func toTransactionEntity(dto TransactionDTO) Transaction {
	var date time.Time
	if dto.Date != nil {
		date = dto.Date.Time
	}
	return Transaction{
		Id:          dto.Id,
		Type:        dto.Type,
		Amount:      dto.Amount,
		Description: dto.Description,
		Date:        date,
		Category:    dto.Category,
		UserId:      dto.UserId,
	}
}

func toTransactionDTOs(ts []Transaction) []TransactionDTO {
	out := make([]TransactionDTO, 0, len(ts))
	for _, t := range ts {
		out = append(out, toTransactionDTO(t))
	}
	return out
}
