package bot

const (
	textHelp = "/start - создать профиль пользователя\n" +
		"/set_doctor - выбрать врача и медицинское учреждение\n" +
		"/status - узнать текущий статус талонов у врача\n" +
		"/on - включить отслеживание талонов\n" +
		"/off - отключить отслеживание талонов\n" +
		"/1 ... /99 - уведомлять только о записи в ближайшие N дней, /0 - без ограничения\n" +
		"/delete - удалить профиль пользователя\n" +
		"/state - узнать текущее состояние бота\n" +
		"/id - узнать свой telegram id\n\n" +
		"Можно прислать ссылку на расписание врача с сайта gorzdrav.spb.ru, чтобы выбрать его сразу."

	textProfileCreated = "Ваш профиль создан.\n\n" +
		"Используйте команду /set_doctor для выбора врача.\n" +
		"Используйте команду /delete для удаления профиля."
	textProfileDeleted = "Ваш профиль удалён.\nВыполните команду /start для создания профиля."
	textNoProfile      = "У вас нет профиля.\nИспользуйте команду /start для создания профиля."
	textNoDoctor       = "Пожалуйста добавьте врача.\nВыполните команду /set_doctor"

	textWatchOn  = "Отслеживание включено"
	textWatchOff = "Отслеживание выключено"

	textChooseDistrict  = "Выберите район:"
	textChooseFacility  = "Выберите медучреждение:"
	textChooseSpecialty = "Выберите специальность в медучреждении %s:"
	textChooseDoctor    = "Выберите врача в медучреждении %s:"
	textEmptyList       = "Список пуст. Вернитесь назад и выберите другой вариант."

	textDoctorUnavailable = "Не удалось получить информацию о враче. Попробуйте еще раз."
	textStatusUnavailable = "Не удалось получить данные врача.\n" +
		"Попробуйте позднее или задайте снова врача командой /set_doctor."

	textBadLink        = "Не удалось разобрать ссылку. Пришлите ссылку на расписание врача с сайта gorzdrav.spb.ru."
	textStaleKeyboard  = "Список устарел, выполните /set_doctor ещё раз."
	textStaleSession   = "Выбор врача прерван, выполните /set_doctor ещё раз."
	textUnknownCommand = "Неизвестная команда. Используйте /help для списка команд."
	textUseHelp        = "Используйте /help для списка команд."

	textUpstreamFault = "Сервис горздрава временно недоступен. Попробуйте позже."
	textBusinessError = "Горздрав вернул ошибку: "
	textInternalError = "Что-то пошло не так. Попробуйте позже."

	textWindowSet     = "Буду уведомлять только о записи в ближайшие %d дн."
	textWindowCleared = "Ограничение по дням снято."

	labelBack   = "Назад"
	labelCancel = "Отмена"
)
