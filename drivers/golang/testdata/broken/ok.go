package broken

func Fine() {}
