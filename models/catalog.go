package models

// Справочные сущности каталога. Ядро читает их только для проверки
// существования ссылок и вместимости площадки.

// Cliente — клиент, на которого оформляется резерва.
type Cliente struct {
	ID     int    `json:"id" db:"id"`
	Nombre string `json:"nombre" db:"nombre"`
	Email  string `json:"email" db:"email"`
}

// Cancha — спортивная площадка с настроенной вместимостью.
type Cancha struct {
	ID        int     `json:"id" db:"id"`
	Nombre    string  `json:"nombre" db:"nombre"`
	Capacidad int     `json:"capacidad" db:"capacidad"`
	Ubicacion *string `json:"ubicacion,omitempty" db:"ubicacion"`
}

// Disciplina — дисциплина, под которую бронируется площадка.
type Disciplina struct {
	ID     int    `json:"id" db:"id"`
	Nombre string `json:"nombre" db:"nombre"`
}

// Deportista — спортсмен, занимающий слот резервы.
type Deportista struct {
	ID     int    `json:"id" db:"id"`
	Nombre string `json:"nombre" db:"nombre"`
	Email  string `json:"email" db:"email"`
}

// Encargado — ответственный за контроль доступа и инциденты.
type Encargado struct {
	ID     int    `json:"id" db:"id"`
	Nombre string `json:"nombre" db:"nombre"`
	Email  string `json:"email" db:"email"`
}
