package entities

type User struct {
	Id       string `dynamodbav:"UserId" json:"id"`
	Username string `dynamodbav:"Username" json:"username"`
}

type Tally struct {
	UserId string `dynamodbav:"UserId" json:"userId"`
	Wins   int    `dynamodbav:"Wins" json:"wins"`
	Losses int    `dynamodbav:"Losses" json:"losses"`
	Draws  int    `dynamodbav:"Draws" json:"draws"`
}
